package registry

import (
	"errors"
	"fmt"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/validation"
)

// ErrInvalidRegistry is wrapped by every construction failure.
var ErrInvalidRegistry = errors.New("invalid step registry")

// Registry is the ordered, immutable description of the wizard steps.
// It is safe for concurrent use.
type Registry struct {
	steps    []domain.Step
	index    map[domain.StepID]int
	terminal int
	rules    *validation.Rules
}

// New builds a registry from steps given in ascending ID order.
// Exactly one step must be terminal and it must be the last one.
// A nil rules argument uses validation.Default().
func New(rules *validation.Rules, steps ...domain.Step) (*Registry, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidRegistry)
	}
	if rules == nil {
		rules = validation.Default()
	}

	r := &Registry{
		steps:    append([]domain.Step(nil), steps...),
		index:    make(map[domain.StepID]int, len(steps)),
		terminal: -1,
		rules:    rules,
	}

	for i, s := range r.steps {
		if _, dup := r.index[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate step %d", ErrInvalidRegistry, s.ID)
		}
		if i > 0 && s.ID <= r.steps[i-1].ID {
			return nil, fmt.Errorf("%w: step %d declared after step %d", ErrInvalidRegistry, s.ID, r.steps[i-1].ID)
		}
		if s.Terminal {
			if r.terminal >= 0 {
				return nil, fmt.Errorf("%w: more than one terminal step", ErrInvalidRegistry)
			}
			if s.Visible != nil {
				return nil, fmt.Errorf("%w: terminal step %d cannot be conditional", ErrInvalidRegistry, s.ID)
			}
			r.terminal = i
		}
		r.index[s.ID] = i
	}

	if r.terminal != len(r.steps)-1 {
		return nil, fmt.Errorf("%w: the last step must be the only terminal step", ErrInvalidRegistry)
	}
	return r, nil
}

// Rules returns the validation rules the registry checks completeness with.
func (r *Registry) Rules() *validation.Rules {
	return r.rules
}

// Steps returns every registered step, visible or not.
func (r *Registry) Steps() []domain.Step {
	return append([]domain.Step(nil), r.steps...)
}

// Step looks up a step by ID.
func (r *Registry) Step(id domain.StepID) (domain.Step, bool) {
	i, ok := r.index[id]
	if !ok {
		return domain.Step{}, false
	}
	return r.steps[i], true
}

// Terminal returns the review step.
func (r *Registry) Terminal() domain.Step {
	return r.steps[r.terminal]
}

// Visible returns the steps whose visibility predicate holds for ctx, in order.
func (r *Registry) Visible(ctx domain.Context) []domain.Step {
	out := make([]domain.Step, 0, len(r.steps))
	for _, s := range r.steps {
		if s.IsVisible(ctx) {
			out = append(out, s)
		}
	}
	return out
}

// IsVisible evaluates the visibility of a single step. Unknown IDs are not visible.
func (r *Registry) IsVisible(id domain.StepID, ctx domain.Context) bool {
	s, ok := r.Step(id)
	return ok && s.IsVisible(ctx)
}

// Fields returns the static and dynamic fields of a step.
func (r *Registry) Fields(id domain.StepID, ctx domain.Context) []domain.FieldKey {
	s, ok := r.Step(id)
	if !ok {
		return nil
	}
	return s.AllFields(ctx)
}

// VisibleFields returns the fields of every visible step. Fields of hidden
// steps never take part in gating.
func (r *Registry) VisibleFields(ctx domain.Context) []domain.FieldKey {
	var out []domain.FieldKey
	for _, s := range r.Visible(ctx) {
		out = append(out, s.AllFields(ctx)...)
	}
	return out
}

// IsComplete reports whether every field of the step validates and the
// step's own completion predicate holds.
func (r *Registry) IsComplete(id domain.StepID, ctx domain.Context) bool {
	s, ok := r.Step(id)
	if !ok {
		return false
	}
	if r.rules.ValidateFields(ctx, s.AllFields(ctx)...) != nil {
		return false
	}
	return s.Complete == nil || s.Complete(ctx)
}

// FirstIncomplete returns the first visible step that is not complete.
// When every visible step is complete it returns the terminal step.
func (r *Registry) FirstIncomplete(ctx domain.Context) domain.Step {
	for _, s := range r.Visible(ctx) {
		if s.Terminal || !r.IsComplete(s.ID, ctx) {
			return s
		}
	}
	return r.Terminal()
}

// Next returns the first visible step after id.
func (r *Registry) Next(id domain.StepID, ctx domain.Context) (domain.Step, bool) {
	for _, s := range r.steps {
		if s.ID > id && s.IsVisible(ctx) {
			return s, true
		}
	}
	return domain.Step{}, false
}

// Prev returns the last visible step before id.
func (r *Registry) Prev(id domain.StepID, ctx domain.Context) (domain.Step, bool) {
	for i := len(r.steps) - 1; i >= 0; i-- {
		s := r.steps[i]
		if s.ID < id && s.IsVisible(ctx) {
			return s, true
		}
	}
	return domain.Step{}, false
}

// NearestVisibleFrom returns the first visible step with ID >= id.
// The terminal step is always visible, so a step is always found.
func (r *Registry) NearestVisibleFrom(id domain.StepID, ctx domain.Context) domain.Step {
	for _, s := range r.steps {
		if s.ID >= id && s.IsVisible(ctx) {
			return s
		}
	}
	return r.Terminal()
}
