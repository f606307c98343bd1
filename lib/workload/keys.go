package workload

import (
	"github.com/ValentinKolb/kvbench/lib/store"
	"golang.org/x/exp/rand"
)

// GenerateKeys returns count keys in insertion order.
//
// Sequential runs get 0..count-1 ascending. Random runs draw from [0, space)
// without replacement, rejecting already chosen keys, and keep the draw order;
// that order is both the insertion and the read-back order of the run.
func GenerateKeys(count int, sequential bool, space uint64, rng *rand.Rand) ([]uint64, error) {
	if count < 0 {
		return nil, store.ConfigError("key count must not be negative, got %d", count)
	}
	if uint64(count) > space {
		return nil, store.ConfigError("key count %d exceeds the key space of %d keys", count, space)
	}

	keys := make([]uint64, count)
	if sequential {
		for i := range keys {
			keys[i] = uint64(i)
		}
		return keys, nil
	}

	if rng == nil {
		return nil, store.ConfigError("random key generation needs a random source")
	}

	chosen := make(map[uint64]struct{}, count)
	for i := range keys {
		for {
			candidate := rng.Uint64n(space)
			if _, ok := chosen[candidate]; ok {
				continue
			}
			chosen[candidate] = struct{}{}
			keys[i] = candidate
			break
		}
	}
	return keys, nil
}
