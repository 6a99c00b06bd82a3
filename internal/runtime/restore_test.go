package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore_ResumesAtStoredStep(t *testing.T) {
	src := newFixture(t)
	src.walkToReview(t)
	snap := src.m.Snapshot()

	dst := newFixture(t)
	require.NoError(t, dst.m.Restore(context.Background(), snap))

	assert.Equal(t, domain.StepReview, dst.m.CurrentStep().ID)
	assert.Equal(t, "Ada Lovelace", dst.m.Field(domain.FieldCustomerName).Value)
	assert.Equal(t, "deep", dst.m.Context().Service.ID)
	assert.True(t, dst.m.Context().AreaCheck.Passed())
	assert.Equal(t, snap.History, dst.m.Snapshot().History)
	assert.True(t, dst.m.CanSubmit())
	assert.Empty(t, dst.checker.Calls(), "a passed check is not repeated")

	require.NoError(t, dst.m.Submit(context.Background()))
	assert.Len(t, dst.submitter.Calls(), 1)
}

func TestRestore_InterruptedSubmissionCanBeRetried(t *testing.T) {
	src := newFixture(t)
	src.walkToReview(t)
	snap := src.m.Snapshot()
	snap.Status = domain.StatusSubmitting

	dst := newFixture(t)
	require.NoError(t, dst.m.Restore(context.Background(), snap))
	assert.Equal(t, domain.StatusSubmitFailed, dst.m.Status())
	assert.NotEmpty(t, dst.m.Snapshot().SubmitError)
	assert.True(t, dst.m.CanSubmit())
}

func TestRestore_HiddenStepJumpsForward(t *testing.T) {
	snap := domain.NewSnapshot("sess-1", domain.StepPets)
	snap.Fields[domain.FieldService] = domain.FieldState{Value: "deep", Touched: true}

	s := domain.DefaultSettings()
	s.PetStepEnabled = false
	s.FrequencyStepEnabled = false
	f := newFixture(t, withSettings(s))

	require.NoError(t, f.m.Restore(context.Background(), snap))
	assert.Equal(t, domain.StepSchedule, f.m.CurrentStep().ID)
}

func TestRestore_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Error(t, f.m.Restore(ctx, nil))

	sealed := domain.NewSnapshot("sess-1", domain.StepService)
	sealed.Sealed = "opaque"
	assert.Error(t, f.m.Restore(ctx, sealed))

	assert.Error(t, f.m.Restore(ctx, domain.NewSnapshot("sess-1", domain.StepID(99))))
}
