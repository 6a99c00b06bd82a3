package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewSnapshot(sessionID, domain.StepAreaCheck)
		snap.Fields[domain.FieldZip] = domain.FieldState{Value: "12345", Touched: true}
		snap.AreaCheck = domain.AreaCheckResult{Status: domain.AreaCheckSuccess, Serviceable: true, Zip: "12345", Token: 3}
		snap.Scheduling.Slots = []domain.AvailableSlot{{Date: "2026-03-02", StartTime: "09:00", EndTime: "11:00"}}

		require.NoError(t, store.Save(ctx, sessionID, snap), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.CurrentStep, loaded.CurrentStep)
		assert.Equal(t, snap.Status, loaded.Status)
		assert.Equal(t, "12345", loaded.Fields[domain.FieldZip].Value)
		assert.Equal(t, snap.AreaCheck, loaded.AreaCheck)
		assert.Equal(t, snap.Scheduling.Slots, loaded.Scheduling.Slots)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSnapshot(sessionID, domain.StepService)))
		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot(id1, domain.StepService))
		_ = store.Save(ctx, id2, domain.NewSnapshot(id2, domain.StepService))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
