package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/bookflow/pkg/domain"
)

// DefaultPostalPattern accepts 4 to 10 alphanumerics, spaces or dashes,
// starting and ending with an alphanumeric.
const DefaultPostalPattern = `^[A-Za-z0-9][A-Za-z0-9 -]{2,8}[A-Za-z0-9]$`

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Frequencies accepted by the frequency step.
var Frequencies = []string{"one-time", "weekly", "biweekly", "monthly"}

// PropertyAccessModes accepted by the customer step.
var PropertyAccessModes = []string{"home", "key", "other"}

// Rule classifies a value. It returns the empty code when the value is valid.
type Rule func(value string, ctx domain.Context) domain.ErrorCode

// Rules maps every field to its rule.
type Rules struct {
	postal *regexp.Regexp
	rules  map[domain.FieldKey]Rule
}

// Option configures Rules.
type Option func(*Rules) error

// WithPostalPattern replaces the zip pattern.
func WithPostalPattern(pattern string) Option {
	return func(r *Rules) error {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid postal pattern %q: %w", pattern, err)
		}
		r.postal = re
		return nil
	}
}

// WithRule overrides or adds the rule of a single field.
func WithRule(key domain.FieldKey, rule Rule) Option {
	return func(r *Rules) error {
		r.rules[key] = rule
		return nil
	}
}

// New creates the rule set of the booking wizard.
func New(opts ...Option) (*Rules, error) {
	r := &Rules{
		postal: regexp.MustCompile(DefaultPostalPattern),
		rules:  make(map[domain.FieldKey]Rule),
	}
	r.rules[domain.FieldZip] = r.zip
	r.rules[domain.FieldService] = service
	r.rules[domain.FieldHasPets] = oneOf(true, "yes", "no")
	r.rules[domain.FieldPetDetails] = requiredWhen(domain.FieldHasPets, "yes")
	r.rules[domain.FieldFrequency] = oneOf(true, Frequencies...)
	r.rules[domain.FieldDate] = date
	r.rules[domain.FieldTimeSlot] = timeSlot
	r.rules[domain.FieldCustomerName] = required
	r.rules[domain.FieldCustomerPhone] = required
	r.rules[domain.FieldServiceAddress] = required
	r.rules[domain.FieldCustomerEmail] = email
	r.rules[domain.FieldPropertyAccess] = propertyAccess
	r.rules[domain.FieldAccessDetails] = accessDetails

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Default returns the rule set with the default postal pattern.
func Default() *Rules {
	r, _ := New()
	return r
}

// Check returns the error code of value for key, or the empty code.
func (r *Rules) Check(key domain.FieldKey, value string, ctx domain.Context) domain.ErrorCode {
	if rule, ok := r.rules[key]; ok {
		return rule(value, ctx)
	}
	if id, ok := key.OptionID(); ok {
		return option(id, value, ctx)
	}
	return ""
}

// Validate returns a *FieldError when value fails the rule of key.
func (r *Rules) Validate(key domain.FieldKey, value string, ctx domain.Context) error {
	if code := r.Check(key, value, ctx); code != "" {
		return &FieldError{Field: key, Code: code}
	}
	return nil
}

// ValidateFields validates the current values of keys in ctx.
// It returns an *AggregateError listing every failure, in key order.
func (r *Rules) ValidateFields(ctx domain.Context, keys ...domain.FieldKey) error {
	var errs []*FieldError
	for _, k := range keys {
		if code := r.Check(k, ctx.Value(k), ctx); code != "" {
			errs = append(errs, &FieldError{Field: k, Code: code})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (r *Rules) zip(value string, _ domain.Context) domain.ErrorCode {
	v := strings.TrimSpace(value)
	if v == "" {
		return domain.CodeRequired
	}
	if !r.postal.MatchString(v) {
		return domain.CodeInvalidFormat
	}
	return ""
}

func required(value string, _ domain.Context) domain.ErrorCode {
	if strings.TrimSpace(value) == "" {
		return domain.CodeRequired
	}
	return ""
}

func email(value string, ctx domain.Context) domain.ErrorCode {
	if code := required(value, ctx); code != "" {
		return code
	}
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		return domain.CodeInvalidEmail
	}
	return ""
}

func service(value string, ctx domain.Context) domain.ErrorCode {
	if code := required(value, ctx); code != "" {
		return code
	}
	if ctx.Service == nil || ctx.Service.ID != strings.TrimSpace(value) {
		return domain.CodeInvalidChoice
	}
	return ""
}

func oneOf(mandatory bool, choices ...string) Rule {
	return func(value string, _ domain.Context) domain.ErrorCode {
		v := strings.TrimSpace(value)
		if v == "" {
			if mandatory {
				return domain.CodeRequired
			}
			return ""
		}
		for _, c := range choices {
			if v == c {
				return ""
			}
		}
		return domain.CodeInvalidChoice
	}
}

func requiredWhen(dep domain.FieldKey, want string) Rule {
	return func(value string, ctx domain.Context) domain.ErrorCode {
		if ctx.TrimmedValue(dep) != want {
			return ""
		}
		return required(value, ctx)
	}
}

var propertyAccessChoice = oneOf(false, PropertyAccessModes...)

func propertyAccess(value string, ctx domain.Context) domain.ErrorCode {
	if !ctx.Settings.PropertyAccessEnabled {
		return ""
	}
	return propertyAccessChoice(value, ctx)
}

var accessDetailsWhenOther = requiredWhen(domain.FieldPropertyAccess, "other")

func accessDetails(value string, ctx domain.Context) domain.ErrorCode {
	if !ctx.Settings.PropertyAccessEnabled {
		return ""
	}
	return accessDetailsWhenOther(value, ctx)
}

func date(value string, ctx domain.Context) domain.ErrorCode {
	v := strings.TrimSpace(value)
	if v == "" {
		return domain.CodeRequired
	}
	if _, err := time.Parse(domain.DateLayout, v); err != nil {
		return domain.CodeInvalidFormat
	}
	if ctx.IsDateDisabled(v) {
		return domain.CodeDateUnavailable
	}
	return ""
}

func timeSlot(value string, ctx domain.Context) domain.ErrorCode {
	v := strings.TrimSpace(value)
	if v == "" {
		return domain.CodeRequired
	}
	if _, ok := domain.FindSlot(ctx.Slots, ctx.SelectedDate, v); !ok {
		return domain.CodeSlotUnavailable
	}
	return ""
}

// option validates the value of a service option. Options the selected
// service does not declare are treated as unknown fields.
func option(id, value string, ctx domain.Context) domain.ErrorCode {
	opt, ok := ctx.Service.Option(id)
	if !ok {
		return ""
	}
	v := strings.TrimSpace(value)
	if v == "" {
		if opt.Required {
			return domain.CodeRequired
		}
		return ""
	}
	switch {
	case opt.Type.HasChoices():
		if !opt.HasChoice(v) {
			return domain.CodeInvalidChoice
		}
	case opt.Type.IsNumeric():
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n <= 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return domain.CodeInvalidFormat
		}
	}
	return ""
}
