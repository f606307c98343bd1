package workload

import (
	"hash"
	"hash/crc32"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Checksums
// --------------------------------------------------------------------------

// Checksum accumulates (key, value) pairs into a 64 bit digest.
type Checksum interface {
	Add(key, value []byte)
	Sum64() uint64
	Reset()
}

// CRC32 is an IEEE CRC32 over key bytes followed by value bytes for every
// entry. The digest depends on the entry order.
type CRC32 struct {
	h hash.Hash32
}

// NewCRC32 returns an empty CRC32 checksum.
func NewCRC32() *CRC32 {
	return &CRC32{h: crc32.NewIEEE()}
}

func (c *CRC32) Add(key, value []byte) {
	_, _ = c.h.Write(key)
	_, _ = c.h.Write(value)
}

func (c *CRC32) Sum64() uint64 { return uint64(c.h.Sum32()) }

func (c *CRC32) Reset() { c.h.Reset() }

// XXH64Sum adds xxh64(key) + xxh64(value) for every entry. Addition commutes,
// so the digest does not depend on the entry order.
type XXH64Sum struct {
	sum uint64
}

// NewXXH64Sum returns an empty XXH64Sum checksum.
func NewXXH64Sum() *XXH64Sum {
	return &XXH64Sum{}
}

func (x *XXH64Sum) Add(key, value []byte) {
	x.sum += xxhash.Sum64(key) + xxhash.Sum64(value)
}

func (x *XXH64Sum) Sum64() uint64 { return x.sum }

func (x *XXH64Sum) Reset() { x.sum = 0 }

// --------------------------------------------------------------------------
// Store Checksums
// --------------------------------------------------------------------------

// ChecksumStore feeds every entry of an ascending scan of txn into sums and
// returns the number of entries visited.
func ChecksumStore(txn store.ReadTxn, sums ...Checksum) (int, error) {
	n := 0
	err := txn.Scan(store.Forward, func(key, value []byte) error {
		for _, s := range sums {
			s.Add(key, value)
		}
		n++
		return nil
	})
	return n, err
}
