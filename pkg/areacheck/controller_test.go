package areacheck_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/bookflow/internal/testutils"
	"github.com/aretw0/bookflow/pkg/areacheck"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const debounce = 500 * time.Millisecond

func newController(checker ports.AreaChecker) (*areacheck.Controller, *testutils.ManualScheduler) {
	sched := testutils.NewManualScheduler()
	c := areacheck.New(checker,
		areacheck.WithDebounce(debounce),
		areacheck.WithScheduler(sched.Schedule),
	)
	return c, sched
}

func TestOnZipInput_DebounceIssuesOneRequest(t *testing.T) {
	checker := &testutils.AreaChecker{}
	c, sched := newController(checker)

	err := c.OnZipInput("1")
	var fe *validation.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.CodeInvalidFormat, fe.Code)
	assert.Equal(t, domain.AreaCheckIdle, c.Result().Status)

	sched.Advance(200 * time.Millisecond)
	require.NoError(t, c.OnZipInput("12345"))
	assert.Equal(t, domain.AreaCheckPending, c.Result().Status)
	assert.Empty(t, checker.Calls(), "pending covers the debounce window before any request")

	sched.Advance(debounce)
	assert.Equal(t, []string{"12345"}, checker.Calls())
	assert.Equal(t, domain.AreaCheckSuccess, c.Result().Status)
	assert.True(t, c.Result().Passed())
}

func TestOnZipInput_TrailingEdge(t *testing.T) {
	checker := &testutils.AreaChecker{}
	c, sched := newController(checker)

	require.NoError(t, c.OnZipInput("1234"))
	sched.Advance(400 * time.Millisecond)
	require.NoError(t, c.OnZipInput("12345"))
	sched.Advance(400 * time.Millisecond)
	assert.Empty(t, checker.Calls(), "keystroke within the interval reschedules")

	sched.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"12345"}, checker.Calls())
	assert.Equal(t, 0, sched.Pending())
}

func TestOnZipInput_EmptyShortCircuits(t *testing.T) {
	checker := &testutils.AreaChecker{}
	c, sched := newController(checker)

	require.NoError(t, c.OnZipInput("12345"))
	err := c.OnZipInput("  ")
	var fe *validation.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, domain.CodeRequired, fe.Code)

	sched.Advance(time.Second)
	assert.Empty(t, checker.Calls())
	assert.Equal(t, domain.AreaCheckIdle, c.Result().Status)
}

func TestOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		fn         func(context.Context, string) (ports.AreaCheckResponse, error)
		wantStatus domain.AreaCheckStatus
		wantPassed bool
		wantCode   domain.ErrorCode
		wantReason string
		wantArea   string
	}{
		{
			name: "serviceable",
			fn: func(context.Context, string) (ports.AreaCheckResponse, error) {
				return ports.AreaCheckResponse{Serviceable: true, AreaName: "Downtown"}, nil
			},
			wantStatus: domain.AreaCheckSuccess,
			wantPassed: true,
			wantArea:   "Downtown",
		},
		{
			name: "not serviceable",
			fn: func(context.Context, string) (ports.AreaCheckResponse, error) {
				return ports.AreaCheckResponse{Serviceable: false, Message: "outside our area"}, nil
			},
			wantStatus: domain.AreaCheckSuccess,
			wantCode:   domain.CodeAreaUnserviceable,
			wantReason: "outside our area",
		},
		{
			name: "collaborator error",
			fn: func(context.Context, string) (ports.AreaCheckResponse, error) {
				return ports.AreaCheckResponse{}, errors.New("connection refused")
			},
			wantStatus: domain.AreaCheckFailure,
			wantCode:   domain.CodeAreaCheckFailed,
			wantReason: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sched := newController(&testutils.AreaChecker{Fn: tt.fn})

			var got []areacheck.Update
			c.OnResult(func(u areacheck.Update) { got = append(got, u) })

			require.NoError(t, c.OnZipInput("12345"))
			sched.Advance(debounce)

			res := c.Result()
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantPassed, res.Passed())
			assert.Equal(t, tt.wantCode, res.BlockingCode())
			assert.Equal(t, tt.wantReason, res.Reason)
			assert.Equal(t, tt.wantArea, res.AreaName)
			require.Len(t, got, 1)
			assert.Equal(t, res, got[0].Result)
		})
	}
}

func TestTimeoutIsFailure(t *testing.T) {
	checker := &testutils.AreaChecker{Fn: func(ctx context.Context, _ string) (ports.AreaCheckResponse, error) {
		<-ctx.Done()
		return ports.AreaCheckResponse{}, ctx.Err()
	}}
	sched := testutils.NewManualScheduler()
	c := areacheck.New(checker,
		areacheck.WithScheduler(sched.Schedule),
		areacheck.WithRequestTimeout(10*time.Millisecond),
	)

	require.NoError(t, c.OnZipInput("12345"))
	sched.Advance(areacheck.DefaultDebounce)

	res := c.Result()
	assert.Equal(t, domain.AreaCheckFailure, res.Status)
	assert.Equal(t, "timeout", res.Reason)
}

func TestStaleResponseDiscarded(t *testing.T) {
	release := map[string]chan struct{}{
		"11111": make(chan struct{}),
		"22222": make(chan struct{}),
	}
	checker := &testutils.AreaChecker{Fn: func(ctx context.Context, zip string) (ports.AreaCheckResponse, error) {
		select {
		case <-release[zip]:
		case <-ctx.Done():
		}
		return ports.AreaCheckResponse{Serviceable: zip == "11111"}, nil
	}}
	c := areacheck.New(checker, areacheck.WithDebounce(time.Millisecond))

	require.NoError(t, c.OnZipInput("11111"))
	require.Eventually(t, func() bool { return len(checker.Calls()) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.OnZipInput("22222"))
	require.Eventually(t, func() bool { return len(checker.Calls()) == 2 }, time.Second, time.Millisecond)

	close(release["22222"])
	require.Eventually(t, func() bool { return c.Result().Status == domain.AreaCheckSuccess }, time.Second, time.Millisecond)

	close(release["11111"])
	time.Sleep(20 * time.Millisecond)

	res := c.Result()
	assert.Equal(t, "22222", res.Zip)
	assert.False(t, res.Serviceable, "older serviceable response must not overwrite the newer one")
}

func TestResetAndClose(t *testing.T) {
	checker := &testutils.AreaChecker{}
	c, sched := newController(checker)

	require.NoError(t, c.OnZipInput("12345"))
	c.Reset()
	assert.Equal(t, domain.AreaCheckIdle, c.Result().Status)
	sched.Advance(debounce)
	assert.Empty(t, checker.Calls())

	require.NoError(t, c.OnZipInput("12345"))
	c.Close()
	sched.Advance(debounce)
	assert.Empty(t, checker.Calls())
	assert.ErrorIs(t, c.OnZipInput("54321"), areacheck.ErrClosed)
}

func TestTokenIsMonotonic(t *testing.T) {
	c, _ := newController(&testutils.AreaChecker{})

	require.NoError(t, c.OnZipInput("12345"))
	first := c.Result().Token
	_ = c.OnZipInput("1")
	second := c.Result().Token
	require.NoError(t, c.OnZipInput("12345"))
	third := c.Result().Token

	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestRestore(t *testing.T) {
	checker := &testutils.AreaChecker{}
	c, sched := newController(checker)

	c.Restore(domain.AreaCheckResult{Status: domain.AreaCheckSuccess, Serviceable: true, Zip: "12345", Token: 7})
	res := c.Result()
	assert.True(t, res.Passed())
	assert.Greater(t, res.Token, uint64(7))
	sched.Advance(debounce)
	assert.Empty(t, checker.Calls())

	c.Restore(domain.AreaCheckResult{Status: domain.AreaCheckPending, Zip: "54321"})
	sched.Advance(debounce)
	assert.Equal(t, []string{"54321"}, checker.Calls())
	assert.Equal(t, domain.AreaCheckSuccess, c.Result().Status)
}
