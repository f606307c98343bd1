package badger

import (
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "Badger", NewBadgerStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "Badger", NewBadgerStore)
}
