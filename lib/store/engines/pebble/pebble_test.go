package pebble

import (
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "Pebble", NewPebbleStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "Pebble", NewPebbleStore)
}
