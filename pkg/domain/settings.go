package domain

// Settings are the deployment-level switches of the booking form.
// The mapstructure keys match the form settings stored by the host application.
type Settings struct {
	AreaCheckEnabled      bool `json:"area_check_enabled" mapstructure:"bf_enable_location_check"`
	PetStepEnabled        bool `json:"pet_step_enabled" mapstructure:"bf_enable_pet_information"`
	FrequencyStepEnabled  bool `json:"frequency_step_enabled" mapstructure:"bf_enable_service_frequency"`
	DateTimeEnabled       bool `json:"date_time_enabled" mapstructure:"bf_enable_datetime_selection"`
	PropertyAccessEnabled bool `json:"property_access_enabled" mapstructure:"bf_enable_property_access"`
}

// DefaultSettings enables every optional step.
func DefaultSettings() Settings {
	return Settings{
		AreaCheckEnabled:      true,
		PetStepEnabled:        true,
		FrequencyStepEnabled:  true,
		DateTimeEnabled:       true,
		PropertyAccessEnabled: true,
	}
}
