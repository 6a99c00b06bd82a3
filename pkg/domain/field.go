package domain

import "strings"

// FieldKey identifies one input of the wizard.
// It maps 1:1 to a validation rule and to an error-display anchor.
type FieldKey string

const (
	FieldZip            FieldKey = "zip"
	FieldService        FieldKey = "service"
	FieldHasPets        FieldKey = "has_pets"
	FieldPetDetails     FieldKey = "pet_details"
	FieldFrequency      FieldKey = "frequency"
	FieldDate           FieldKey = "date"
	FieldTimeSlot       FieldKey = "time_slot"
	FieldCustomerName   FieldKey = "customer_name"
	FieldCustomerEmail  FieldKey = "customer_email"
	FieldCustomerPhone  FieldKey = "customer_phone"
	FieldServiceAddress FieldKey = "service_address"
	FieldInstructions   FieldKey = "instructions"
	FieldPropertyAccess FieldKey = "property_access"
	FieldAccessDetails  FieldKey = "access_details"
)

// optionPrefix namespaces the per-service option fields.
const optionPrefix = "option."

// OptionField returns the field key holding the value of a service option.
func OptionField(optionID string) FieldKey {
	return FieldKey(optionPrefix + optionID)
}

// OptionID extracts the option ID from an option field key.
// The boolean is false when the key is not an option field.
func (k FieldKey) OptionID() (string, bool) {
	s := string(k)
	if !strings.HasPrefix(s, optionPrefix) || len(s) == len(optionPrefix) {
		return "", false
	}
	return s[len(optionPrefix):], true
}

// ErrorCode is the machine-readable reason a field failed validation.
// The empty code means "no error".
type ErrorCode string

const (
	CodeRequired          ErrorCode = "required"
	CodeInvalidFormat     ErrorCode = "invalid_format"
	CodeInvalidEmail      ErrorCode = "invalid_email"
	CodeInvalidChoice     ErrorCode = "invalid_choice"
	CodeDateUnavailable   ErrorCode = "date_unavailable"
	CodeSlotUnavailable   ErrorCode = "slot_unavailable"
	CodeAreaPending       ErrorCode = "area_pending"
	CodeAreaUnserviceable ErrorCode = "area_unserviceable"
	CodeAreaCheckFailed   ErrorCode = "area_check_failed"
)

// FieldState is the presentation-facing state of a single input.
type FieldState struct {
	Value   string    `json:"value"`
	Touched bool      `json:"touched,omitempty"`
	Error   ErrorCode `json:"error,omitempty"`
}

// HasError reports whether an error is currently displayed for the field.
func (f FieldState) HasError() bool {
	return f.Error != ""
}
