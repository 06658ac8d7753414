package badgerstore

import (
	"context"
	"testing"

	"github.com/specialistvlad/gridflow/internal/graph"
	"github.com/specialistvlad/gridflow/internal/node"
	"github.com/specialistvlad/gridflow/internal/topologystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_PutGetDelete(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	_, err = s.Get(ctx, "workflow")
	assert.ErrorIs(t, err, topologystore.ErrNotFound)

	require.NoError(t, s.Put(ctx, "workflow", []byte("v1")))
	require.NoError(t, s.Put(ctx, "sheet", []byte("v2")))

	got, err := s.Get(ctx, "workflow")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sheet", "workflow"}, keys)

	require.NoError(t, s.Delete(ctx, "workflow"))
	_, err = s.Get(ctx, "workflow")
	assert.ErrorIs(t, err, topologystore.ErrNotFound)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestPersistent_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	g := graph.New()
	_, err := g.AddNode(node.Node{ID: "fetch", Func: "describe"})
	require.NoError(t, err)
	_, err = g.AddNode(node.Node{ID: "approve", Kind: node.Manual})
	require.NoError(t, err)
	require.NoError(t, g.AddDependency("approve", "fetch"))

	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	require.NoError(t, topologystore.Save(ctx, s, topologystore.DefaultKey, g))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "close must be idempotent")

	reopened, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := topologystore.Load(ctx, reopened, topologystore.DefaultKey, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "approve"}, loaded.IDs())

	deps, err := loaded.DependenciesOf("approve")
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch"}, deps)
}
