package engines

import (
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		want store.Implementation
	}{
		{"lmdb", store.ImplLMDB},
		{"lmdbjni", store.ImplLMDB},
		{"LMDBJava", store.ImplLMDBRaw},
		{" rocksdb ", store.ImplPebble},
		{"bbolt", store.ImplBolt},
		{"hashmap", store.ImplHashMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnknownStore(t *testing.T) {
	_, err := New("chronicle", store.Options{Dir: t.TempDir(), KeySize: 4, ValueSize: 4})
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCConfiguration), "expected a ConfigurationError, got %v", err)
}

func TestParseList(t *testing.T) {
	all, err := ParseList("all")
	require.NoError(t, err)
	assert.Equal(t, Implementations(), all)

	list, err := ParseList("lmdbjni,lmdb, btree,,rocksdb")
	require.NoError(t, err)
	assert.Equal(t, []store.Implementation{store.ImplLMDB, store.ImplBTree, store.ImplPebble}, list)

	_, err = ParseList(" , ")
	assert.True(t, store.IsCode(err, store.RetCConfiguration))

	_, err = ParseList("btree,nope")
	assert.True(t, store.IsCode(err, store.RetCConfiguration))
}

func TestEveryNameHasFactory(t *testing.T) {
	for _, impl := range Implementations() {
		f, err := Factory(impl)
		require.NoError(t, err, impl)
		require.NotNil(t, f)
	}
	assert.Equal(t, []string{"lmdbjni", "rocksdb"}, AliasNames())
}

func TestNewOpensStore(t *testing.T) {
	s, err := New("btree", store.Options{Dir: t.TempDir(), KeySize: 4, ValueSize: 4})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, store.ImplBTree, s.Info().Name)
}
