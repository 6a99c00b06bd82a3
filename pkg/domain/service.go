package domain

// OptionType enumerates the input kinds a service option can use.
type OptionType string

const (
	OptionCheckbox OptionType = "checkbox"
	OptionText     OptionType = "text"
	OptionNumber   OptionType = "number"
	OptionQuantity OptionType = "quantity"
	OptionSqm      OptionType = "sqm"
	OptionSelect   OptionType = "select"
	OptionRadio    OptionType = "radio"
)

// IsNumeric reports whether values of this option must parse as numbers.
func (t OptionType) IsNumeric() bool {
	return t == OptionNumber || t == OptionQuantity || t == OptionSqm
}

// HasChoices reports whether values must be one of the declared choices.
func (t OptionType) HasChoices() bool {
	return t == OptionSelect || t == OptionRadio
}

// ImpactType defines how an option modifies the base price.
type ImpactType string

const (
	ImpactFixed      ImpactType = "fixed"
	ImpactPercentage ImpactType = "percentage"
)

// ServiceOption is an add-on attached to a service.
type ServiceOption struct {
	ID          string     `json:"id" mapstructure:"id" yaml:"id"`
	Name        string     `json:"name" mapstructure:"name" yaml:"name"`
	Type        OptionType `json:"type" mapstructure:"type" yaml:"type"`
	Required    bool       `json:"required,omitempty" mapstructure:"required" yaml:"required,omitempty"`
	Choices     []string   `json:"choices,omitempty" mapstructure:"choices" yaml:"choices,omitempty"`
	PriceImpact float64    `json:"price_impact,omitempty" mapstructure:"price_impact" yaml:"price_impact,omitempty"`
	ImpactType  ImpactType `json:"impact_type,omitempty" mapstructure:"impact_type" yaml:"impact_type,omitempty"`
}

// HasChoice reports whether v is one of the option's declared choices.
func (o ServiceOption) HasChoice(v string) bool {
	for _, c := range o.Choices {
		if c == v {
			return true
		}
	}
	return false
}

// Service is a bookable service from the catalog.
type Service struct {
	ID    string  `json:"id" mapstructure:"id" yaml:"id"`
	Name  string  `json:"name" mapstructure:"name" yaml:"name"`
	Price float64 `json:"price" mapstructure:"price" yaml:"price"`
	// Duration in minutes.
	Duration               int             `json:"duration" mapstructure:"duration" yaml:"duration"`
	DisablePetQuestion     bool            `json:"disable_pet_question,omitempty" mapstructure:"disable_pet_question" yaml:"disable_pet_question,omitempty"`
	DisableFrequencyOption bool            `json:"disable_frequency_option,omitempty" mapstructure:"disable_frequency_option" yaml:"disable_frequency_option,omitempty"`
	Options                []ServiceOption `json:"options,omitempty" mapstructure:"options" yaml:"options,omitempty"`
}

// Option looks up an option by ID.
func (s *Service) Option(id string) (ServiceOption, bool) {
	if s == nil {
		return ServiceOption{}, false
	}
	for _, o := range s.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ServiceOption{}, false
}

// OptionFields returns the field keys of every option of the service, in declaration order.
func (s *Service) OptionFields() []FieldKey {
	if s == nil {
		return nil
	}
	keys := make([]FieldKey, 0, len(s.Options))
	for _, o := range s.Options {
		keys = append(keys, OptionField(o.ID))
	}
	return keys
}
