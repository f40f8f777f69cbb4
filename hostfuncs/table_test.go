package hostfuncs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertGetRemove(t *testing.T) {
	tbl := NewTable[string](0)

	h0, err := tbl.Insert("a")
	require.NoError(t, err)
	h1, err := tbl.Insert("b")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), h0)
	assert.Equal(t, uint32(1), h1)

	v, ok := tbl.Get(h1)
	assert.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = tbl.Remove(h0)
	assert.True(t, ok)
	_, ok = tbl.Get(h0)
	assert.False(t, ok)

	h2, err := tbl.Insert("c")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h2, "handles are not reused")
	assert.Equal(t, 2, tbl.Len())

	tbl.Clear()
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_Limit(t *testing.T) {
	tbl := NewTable[int](1)
	_, err := tbl.Insert(1)
	require.NoError(t, err)

	_, err = tbl.Insert(2)
	require.Error(t, err)
	assert.Equal(t, ErrnoBusy, ErrnoOf(err))
}

func TestTable_ConcurrentInsert(t *testing.T) {
	tbl := NewTable[int](0)
	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := tbl.Insert(i)
			assert.NoError(t, err)
			_, dup := seen.LoadOrStore(h, true)
			assert.False(t, dup)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, tbl.Len())
}
