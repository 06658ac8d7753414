package inmemorystore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/specialistvlad/gridflow/internal/topologystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutAndGet(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "workflow")
	assert.ErrorIs(t, err, topologystore.ErrNotFound)

	value := []byte(`{"version":1}`)
	require.NoError(t, s.Put(ctx, "workflow", value))
	value[0] = 'X'

	got, err := s.Get(ctx, "workflow")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got), "stored value must not alias the caller's buffer")

	got[0] = 'Y'
	again, err := s.Get(ctx, "workflow")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(again))
}

func TestDeleteAndKeys(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "b", []byte("2")))
	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	assert.Equal(t, []string{"a", "b"}, s.Keys())

	require.NoError(t, s.Delete(ctx, "a"))
	require.NoError(t, s.Delete(ctx, "missing"))
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%10)
			assert.NoError(t, s.Put(ctx, key, []byte(key)))
			got, err := s.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, key, string(got))
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Keys(), 10)
}
