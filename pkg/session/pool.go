package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/bookflow"
	"github.com/aretw0/bookflow/internal/logging"
	"github.com/aretw0/bookflow/pkg/domain"
)

// ErrPoolClosed is returned once Close has been called.
var ErrPoolClosed = errors.New("session pool is closed")

type liveSession struct {
	session     *bookflow.Session
	unsubscribe func()
}

// Pool keeps the live sessions of one replica and persists every change
// through a Manager. Sessions missing from memory are resumed from the store.
type Pool struct {
	engine  *bookflow.Engine
	manager *Manager
	logger  *slog.Logger

	mu     sync.Mutex
	live   map[string]*liveSession
	closed bool
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger configures a logger for the Pool.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		p.logger = logger
	}
}

// NewPool creates an empty pool.
func NewPool(engine *bookflow.Engine, manager *Manager, opts ...PoolOption) *Pool {
	p := &Pool{
		engine:  engine,
		manager: manager,
		logger:  logging.NewNop(),
		live:    make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Create starts a new session and stores its initial snapshot.
func (p *Pool) Create(ctx context.Context) (*bookflow.Session, error) {
	if p.isClosed() {
		return nil, ErrPoolClosed
	}
	s, err := p.engine.Start(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := p.persist(ctx, s); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	if err := p.add(s); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Get returns the live session, resuming it from the store if needed.
// Returns domain.ErrSessionNotFound for unknown IDs.
func (p *Pool) Get(ctx context.Context, sessionID string) (*bookflow.Session, error) {
	if s := p.lookup(sessionID); s != nil {
		return s, nil
	}

	var s *bookflow.Session
	err := p.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if s = p.lookup(sessionID); s != nil {
			return nil
		}
		snap, err := p.manager.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}
		s, err = p.engine.Resume(ctx, snap)
		if err != nil {
			return err
		}
		if err := p.add(s); err != nil {
			s.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Evict closes the live session, keeping its stored state.
func (p *Pool) Evict(sessionID string) {
	p.mu.Lock()
	entry, ok := p.live[sessionID]
	delete(p.live, sessionID)
	p.mu.Unlock()

	if ok {
		entry.unsubscribe()
		entry.session.Close()
	}
}

// Delete evicts the session and removes it from the store.
func (p *Pool) Delete(ctx context.Context, sessionID string) error {
	p.Evict(sessionID)
	return p.manager.Delete(ctx, sessionID)
}

// Len returns the number of live sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.live)
}

// Close evicts every live session.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	ids := make([]string, 0, len(p.live))
	for id := range p.live {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.Evict(id)
	}
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pool) lookup(sessionID string) *bookflow.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok := p.live[sessionID]; ok {
		return entry.session
	}
	return nil
}

func (p *Pool) add(s *bookflow.Session) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPoolClosed
	}
	unsubscribe := s.Subscribe(func(_, _ *domain.Snapshot) {
		if err := p.persist(context.Background(), s); err != nil {
			p.logger.Error("failed to persist session", "session_id", s.ID(), "err", err)
		}
	})
	p.live[s.ID()] = &liveSession{session: s, unsubscribe: unsubscribe}
	return nil
}

// persist stores the latest snapshot. It is read under the session lock, so
// whichever save runs last writes the newest state.
func (p *Pool) persist(ctx context.Context, s *bookflow.Session) error {
	return p.manager.WithLock(ctx, s.ID(), func(ctx context.Context) error {
		return p.manager.Store().Save(ctx, s.ID(), s.Snapshot())
	})
}
