package areacheck

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
	"github.com/aretw0/bookflow/pkg/validation"
)

const (
	// DefaultDebounce is the quiet period after the last keystroke.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultRequestTimeout bounds a single collaborator call.
	DefaultRequestTimeout = 10 * time.Second
)

// ErrClosed is returned by OnZipInput after Close.
var ErrClosed = errors.New("area check controller closed")

// Update is delivered when a response is applied.
type Update struct {
	Result   domain.AreaCheckResult
	Duration time.Duration
	Err      error
}

// Controller owns the AreaCheckResult of one wizard session.
// It is safe for concurrent use.
type Controller struct {
	checker  ports.AreaChecker
	rules    *validation.Rules
	debounce time.Duration
	timeout  time.Duration
	schedule Scheduler
	logger   *slog.Logger

	mu     sync.Mutex
	result domain.AreaCheckResult
	token  uint64
	stop   func() bool
	cancel context.CancelFunc
	notify func(Update)
	closed bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the quiet period before a request is issued.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

// WithRequestTimeout bounds each collaborator call. A timeout is a failure.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithScheduler replaces the timer implementation (tests).
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.schedule = s
	}
}

// WithRules sets the rules used to pre-validate the zip.
func WithRules(r *validation.Rules) Option {
	return func(c *Controller) {
		c.rules = r
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New creates a controller in the Idle state.
func New(checker ports.AreaChecker, opts ...Option) *Controller {
	c := &Controller{
		checker:  checker,
		rules:    validation.Default(),
		debounce: DefaultDebounce,
		timeout:  DefaultRequestTimeout,
		schedule: AfterFunc,
		logger:   logging.NewNop(),
		result:   domain.AreaCheckResult{Status: domain.AreaCheckIdle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnResult registers the callback invoked, without locks held, every time a
// response is applied. It replaces any previous callback.
func (c *Controller) OnResult(fn func(Update)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = fn
}

// Result returns the current result.
func (c *Controller) Result() domain.AreaCheckResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// OnZipInput supersedes any scheduled or in-flight check.
// Invalid input resets the result to Idle and returns the *validation.FieldError;
// valid input moves the result to Pending and schedules a check.
// Pending therefore covers the debounce window as well as the request.
func (c *Controller) OnZipInput(value string) error {
	zip := strings.TrimSpace(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	c.token++
	c.stopPendingLocked()

	if err := c.rules.Validate(domain.FieldZip, zip, domain.Context{}); err != nil {
		c.result = domain.AreaCheckResult{Status: domain.AreaCheckIdle, Token: c.token}
		return err
	}

	token := c.token
	c.result = domain.AreaCheckResult{Status: domain.AreaCheckPending, Zip: zip, Token: token}
	c.stop = c.schedule(c.debounce, func() { c.fire(token, zip) })
	return nil
}

// Reset supersedes any pending check and returns to Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token++
	c.stopPendingLocked()
	c.result = domain.AreaCheckResult{Status: domain.AreaCheckIdle, Token: c.token}
}

// Restore replaces the result, e.g. when a session is resumed.
// A result that was still pending is checked again.
func (c *Controller) Restore(r domain.AreaCheckResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopPendingLocked()
	if r.Token > c.token {
		c.token = r.Token
	}
	c.token++
	r.Token = c.token
	c.result = r
	if r.Status == domain.AreaCheckPending && r.Zip != "" {
		token, zip := c.token, r.Zip
		c.stop = c.schedule(c.debounce, func() { c.fire(token, zip) })
	}
}

// Close stops pending timers and discards in-flight responses.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopPendingLocked()
}

func (c *Controller) stopPendingLocked() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) fire(token uint64, zip string) {
	c.mu.Lock()
	if token != c.token || c.closed {
		c.mu.Unlock()
		return
	}
	c.stop = nil
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	c.mu.Unlock()

	c.logger.Debug("area check dispatched", "zip", zip, "token", token)
	start := time.Now()
	resp, err := c.checker.CheckArea(ctx, ports.AreaCheckRequest{Zip: zip})
	elapsed := time.Since(start)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	cancel()

	c.mu.Lock()
	if token != c.token || c.closed {
		c.mu.Unlock()
		c.logger.Debug("area check response discarded", "zip", zip, "token", token)
		return
	}
	c.cancel = nil
	c.result = resolve(token, zip, resp, err)
	result := c.result
	notify := c.notify
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("area check failed", "zip", zip, "error", err)
	}
	if notify != nil {
		notify(Update{Result: result, Duration: elapsed, Err: err})
	}
}

func resolve(token uint64, zip string, resp ports.AreaCheckResponse, err error) domain.AreaCheckResult {
	res := domain.AreaCheckResult{Zip: zip, Token: token}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		res.Status = domain.AreaCheckFailure
		res.Reason = "timeout"
	case err != nil:
		res.Status = domain.AreaCheckFailure
		res.Reason = err.Error()
	default:
		res.Status = domain.AreaCheckSuccess
		res.Serviceable = resp.Serviceable
		res.AreaName = resp.AreaName
		res.Reason = resp.Message
	}
	return res
}
