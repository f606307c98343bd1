package workload

import (
	"encoding/binary"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/util"
	"golang.org/x/exp/rand"
)

// DefaultPoolSize is the size of the shared random value pool (1 MiB).
const DefaultPoolSize = 1 << 20

// Pool is a precomputed buffer of pseudo-random bytes that random values are
// sliced from. It is filled once at construction and never written again, so
// one pool can be shared by any number of concurrent runs.
type Pool struct {
	data []byte
	seed uint64
}

// NewPool fills a pool of size bytes. A zero seed draws a seed from the
// operating system's cryptographic source.
func NewPool(size int, seed uint64) (*Pool, error) {
	if size <= 0 {
		return nil, store.ConfigError("pool size must be positive, got %d", size)
	}
	seed = util.SeedOrRandom(seed)
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(seed))
	if _, err := rng.Read(data); err != nil {
		return nil, err
	}
	return &Pool{data: data, seed: seed}, nil
}

// Len returns the pool length.
func (p *Pool) Len() int { return len(p.data) }

// Seed returns the seed the pool was filled with.
func (p *Pool) Seed() uint64 { return p.seed }

// Slice returns size bytes at offset. The slice aliases the pool and must not
// be modified.
func (p *Pool) Slice(offset, size int) []byte {
	return p.data[offset : offset+size : offset+size]
}

// ValueGenerator produces the values of one run. It owns the rolling pool
// offset; deterministic values ignore the pool.
type ValueGenerator struct {
	pool   *Pool
	size   int
	random bool
	prefix int
	offset int
}

// NewValueGenerator checks size against the pool and returns a generator
// starting at offset 0.
func NewValueGenerator(pool *Pool, size int, random bool, codec KeyCodec) (*ValueGenerator, error) {
	if size <= 0 {
		return nil, store.ConfigError("value size must be positive, got %d", size)
	}
	if random {
		if pool == nil {
			return nil, store.ConfigError("random values need a pool")
		}
		if size > pool.Len() {
			return nil, store.ConfigError("value size %d exceeds pool size %d", size, pool.Len())
		}
	}
	return &ValueGenerator{
		pool:   pool,
		size:   size,
		random: random,
		prefix: codec.ValuePrefix(),
	}, nil
}

// Next returns the value for key and advances the pool offset.
func (g *ValueGenerator) Next(key uint64) []byte {
	if !g.random {
		return DeterministicValue(key, g.size, g.prefix)
	}
	var v []byte
	v, g.offset = g.pool.Next(key, g.size, true, g.offset)
	return v
}

// Offset returns the pool offset of the next random value.
func (g *ValueGenerator) Offset() int { return g.offset }

// Reset rewinds the pool offset so a phase can recompute the values of an
// earlier phase in the same order.
func (g *ValueGenerator) Reset() { g.offset = 0 }

// Next returns the value for key of size bytes and the pool offset of the
// following value.
//
// Deterministic values ignore the pool and the offset. Random values are the
// size bytes at offset; the offset resets to 0 once it reaches len-size, so no
// value ever reads past the end of the pool.
func (p *Pool) Next(key uint64, size int, random bool, offset int) ([]byte, int) {
	if !random {
		return DeterministicValue(key, size, 4), offset
	}
	v := p.Slice(offset, size)
	offset += size
	if offset >= p.Len()-size {
		offset = 0
	}
	return v, offset
}

// DeterministicValue encodes key big-endian into the first prefix bytes of a
// zeroed value of size bytes, truncating when size is smaller than prefix.
// The result depends on nothing but its arguments.
func DeterministicValue(key uint64, size, prefix int) []byte {
	v := make([]byte, size)
	var enc [8]byte
	if prefix == 8 {
		binary.BigEndian.PutUint64(enc[:], key)
	} else {
		binary.BigEndian.PutUint32(enc[:4], uint32(key))
		prefix = 4
	}
	copy(v, enc[:prefix])
	return v
}
