package registry

import "github.com/aretw0/bookflow/pkg/domain"

// BookingSteps returns the steps of the booking flow.
//
// Steps 1, 4, 5 and 6 are conditional: the area check and the scheduling
// step follow the form settings; pets and frequency additionally follow the
// flags of the selected service.
func BookingSteps() []domain.Step {
	return []domain.Step{
		{
			ID:      domain.StepAreaCheck,
			Name:    domain.StepAreaCheck.String(),
			Fields:  []domain.FieldKey{domain.FieldZip},
			Visible: func(c domain.Context) bool { return c.AreaCheckEnabled() },
			Complete: func(c domain.Context) bool {
				return c.AreaCheck.Passed() && c.AreaCheck.Zip == c.TrimmedValue(domain.FieldZip)
			},
		},
		{
			ID:     domain.StepService,
			Name:   domain.StepService.String(),
			Fields: []domain.FieldKey{domain.FieldService},
		},
		{
			ID:   domain.StepOptions,
			Name: domain.StepOptions.String(),
			DynamicFields: func(c domain.Context) []domain.FieldKey {
				return c.Service.OptionFields()
			},
		},
		{
			ID:     domain.StepPets,
			Name:   domain.StepPets.String(),
			Fields: []domain.FieldKey{domain.FieldHasPets, domain.FieldPetDetails},
			Visible: func(c domain.Context) bool {
				return c.Settings.PetStepEnabled && (c.Service == nil || !c.Service.DisablePetQuestion)
			},
		},
		{
			ID:     domain.StepFrequency,
			Name:   domain.StepFrequency.String(),
			Fields: []domain.FieldKey{domain.FieldFrequency},
			Visible: func(c domain.Context) bool {
				return c.Settings.FrequencyStepEnabled && (c.Service == nil || !c.Service.DisableFrequencyOption)
			},
		},
		{
			ID:      domain.StepSchedule,
			Name:    domain.StepSchedule.String(),
			Fields:  []domain.FieldKey{domain.FieldDate, domain.FieldTimeSlot},
			Visible: func(c domain.Context) bool { return c.Settings.DateTimeEnabled },
		},
		{
			ID:   domain.StepCustomer,
			Name: domain.StepCustomer.String(),
			Fields: []domain.FieldKey{
				domain.FieldCustomerName,
				domain.FieldCustomerEmail,
				domain.FieldCustomerPhone,
				domain.FieldServiceAddress,
				domain.FieldInstructions,
				domain.FieldPropertyAccess,
				domain.FieldAccessDetails,
			},
		},
		{
			ID:       domain.StepReview,
			Name:     domain.StepReview.String(),
			Terminal: true,
		},
	}
}

// Default builds the registry of the booking flow.
func Default() *Registry {
	r, err := New(nil, BookingSteps()...)
	if err != nil {
		panic(err)
	}
	return r
}
