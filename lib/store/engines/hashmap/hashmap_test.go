package hashmap

import (
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "HashMap", NewHashMapStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "HashMap", NewHashMapStore)
}
