package domain

// StepID identifies a step of the wizard. Steps are totally ordered by ID.
type StepID int

const (
	StepAreaCheck StepID = iota + 1
	StepService
	StepOptions
	StepPets
	StepFrequency
	StepSchedule
	StepCustomer
	StepReview
)

var stepNames = map[StepID]string{
	StepAreaCheck: "area-check",
	StepService:   "service",
	StepOptions:   "options",
	StepPets:      "pets",
	StepFrequency: "frequency",
	StepSchedule:  "schedule",
	StepCustomer:  "customer",
	StepReview:    "review",
}

// String returns the canonical name of the step (e.g. "area-check").
func (s StepID) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

// Step describes one pane of the wizard.
// Steps are immutable once registered.
type Step struct {
	ID   StepID
	Name string

	// Fields are the inputs that must validate before leaving the step.
	Fields []FieldKey

	// DynamicFields returns extra fields derived from the context
	// (e.g. the options of the selected service). Optional.
	DynamicFields func(Context) []FieldKey

	// Visible reports whether the step takes part in the flow. Nil means always.
	Visible func(Context) bool

	// Complete reports extra completion requirements beyond field validity
	// (e.g. a successful area check). Nil means fields only.
	Complete func(Context) bool

	// Terminal marks the review step from which submission is permitted.
	Terminal bool
}

// IsVisible evaluates the visibility predicate.
func (s Step) IsVisible(ctx Context) bool {
	if s.Visible == nil {
		return true
	}
	return s.Visible(ctx)
}

// AllFields returns the static and dynamic fields of the step.
func (s Step) AllFields(ctx Context) []FieldKey {
	fields := make([]FieldKey, 0, len(s.Fields))
	fields = append(fields, s.Fields...)
	if s.DynamicFields != nil {
		fields = append(fields, s.DynamicFields(ctx)...)
	}
	return fields
}
