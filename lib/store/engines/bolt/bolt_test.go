package bolt

import (
	"testing"

	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "Bolt", NewBoltStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "Bolt", NewBoltStore)
}
