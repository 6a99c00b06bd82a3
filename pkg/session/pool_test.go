package session_test

import (
	"context"
	"testing"

	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *bookflow.Engine {
	t.Helper()
	catalog, err := memory.NewCatalog(domain.Service{ID: "basic", Name: "Basic", Price: 60, Duration: 60})
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.AreaCheckEnabled = false
	settings.DateTimeEnabled = false
	eng, err := bookflow.New(bookflow.WithCatalog(catalog), bookflow.WithSettings(settings))
	require.NoError(t, err)
	return eng
}

func TestPool_PersistsChanges(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pool := session.NewPool(newEngine(t), session.NewManager(store))
	defer pool.Close()

	s, err := pool.Create(ctx)
	require.NoError(t, err)

	stored, err := store.Load(ctx, s.ID())
	require.NoError(t, err, "the initial snapshot is stored")
	assert.Equal(t, domain.StepService, stored.CurrentStep)

	require.NoError(t, s.SetFieldValue(ctx, domain.FieldService, "basic"))
	require.NoError(t, s.Advance(ctx))

	stored, err = store.Load(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, "basic", stored.Fields[domain.FieldService].Value)
	assert.Equal(t, s.CurrentStep().ID, stored.CurrentStep)

	same, err := pool.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, same)
}

func TestPool_ResumesEvictedSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	pool := session.NewPool(newEngine(t), session.NewManager(store))
	defer pool.Close()

	s, err := pool.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SetFieldValue(ctx, domain.FieldService, "basic"))
	require.NoError(t, s.Advance(ctx))
	step := s.CurrentStep().ID

	pool.Evict(s.ID())
	assert.Equal(t, 0, pool.Len())

	resumed, err := pool.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.NotSame(t, s, resumed)
	assert.Equal(t, step, resumed.CurrentStep().ID)
	assert.Equal(t, "basic", resumed.Field(domain.FieldService).Value)
	assert.Equal(t, 1, pool.Len())

	// A second replica sharing the store sees the same session.
	other := session.NewPool(newEngine(t), session.NewManager(store))
	defer other.Close()
	remote, err := other.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, step, remote.CurrentStep().ID)
}

func TestPool_UnknownAndDeleted(t *testing.T) {
	ctx := context.Background()
	pool := session.NewPool(newEngine(t), session.NewManager(memory.NewStore()))

	_, err := pool.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	s, err := pool.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, pool.Delete(ctx, s.ID()))
	_, err = pool.Get(ctx, s.ID())
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	pool.Close()
	_, err = pool.Create(ctx)
	assert.ErrorIs(t, err, session.ErrPoolClosed)
}
