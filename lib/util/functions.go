package util

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// --------------------------------------------------------------------------
// General Utility Functions
// --------------------------------------------------------------------------

// GenerateSeed creates a random seed from the operating system's
// cryptographic source
func GenerateSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// fall back to the clock, only if the system source is unavailable
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}

// SeedOrRandom returns seed, or a fresh cryptographic seed if seed is zero.
func SeedOrRandom(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return GenerateSeed()
}

// --------------------------------------------------------------------------
// String Helpers
// --------------------------------------------------------------------------

// PutDecimal writes n as a zero-padded decimal number filling all of dst.
// Digits that do not fit are dropped from the left.
func PutDecimal(dst []byte, n uint64) {
	for pos := len(dst) - 1; pos >= 0; pos-- {
		dst[pos] = byte('0' + n%10)
		n /= 10
	}
}
