package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/aretw0/bookflow/pkg/ports"
)

// Submit hands the booking to the submission collaborator.
//
// It is only permitted on the terminal step once every visible step is
// complete; otherwise the failing fields get their error set and an error
// wrapping domain.ErrNotSubmittable is returned. While the collaborator
// works the status is submitting and other transitions are refused. A
// failure leaves the data intact, sets submit_failed and returns a
// *SubmissionError; submitting again retries.
func (m *Machine) Submit(ctx context.Context) error {
	var req ports.BookingRequest
	err := m.mutate(ctx, func(fx *effects) error {
		if err := m.checkEditableLocked(); err != nil {
			return err
		}
		if m.submitter == nil {
			return errors.New("no submitter configured")
		}

		view := m.viewLocked()
		step, _ := m.registry.Step(m.current)
		if !step.Terminal {
			return fmt.Errorf("%w: current step is '%s'", domain.ErrNotSubmittable, step.ID)
		}

		errs := make(map[domain.FieldKey]domain.ErrorCode)
		for _, s := range m.registry.Visible(view) {
			for k, code := range m.gateStepLocked(s, view) {
				errs[k] = code
			}
		}
		if len(errs) > 0 || !m.canSubmitLocked(view) {
			fx.validationFailed(m, step.ID, errs)
			return fmt.Errorf("%w: %d invalid fields", domain.ErrNotSubmittable, len(errs))
		}

		m.status = domain.StatusSubmitting
		m.submitErr = ""
		req = m.bookingRequestLocked(view)
		m.logger.Info("submitting booking", "service", req.ServiceID)
		return nil
	})
	if err != nil {
		return err
	}

	start := m.now()
	conf, cause := m.submitter.Submit(ctx, req)
	elapsed := time.Since(start)

	_ = m.mutate(ctx, func(fx *effects) error {
		if cause != nil {
			m.status = domain.StatusSubmitFailed
			m.submitErr = cause.Error()
			m.logger.Warn("booking submission failed", "error", cause)
		} else {
			m.status = domain.StatusSubmitted
			m.bookingID = conf.BookingID
			m.logger.Info("booking submitted", "booking_id", conf.BookingID)
		}
		fx.submitted(m, conf.BookingID, cause, elapsed)
		return nil
	})

	if cause != nil {
		return &SubmissionError{SessionID: m.id, Cause: cause}
	}
	return nil
}

// BookingID returns the ID assigned by the submission collaborator.
func (m *Machine) BookingID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingID
}

// BookingRequest builds the payload Submit would send for the current values.
func (m *Machine) BookingRequest() ports.BookingRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookingRequestLocked(m.viewLocked())
}

// bookingRequestLocked gathers the values of visible steps only.
func (m *Machine) bookingRequestLocked(view domain.Context) ports.BookingRequest {
	req := ports.BookingRequest{
		SessionID: m.id,
		Customer: ports.Customer{
			Name:         view.TrimmedValue(domain.FieldCustomerName),
			Email:        view.TrimmedValue(domain.FieldCustomerEmail),
			Phone:        view.TrimmedValue(domain.FieldCustomerPhone),
			Address:      view.TrimmedValue(domain.FieldServiceAddress),
			Instructions: view.TrimmedValue(domain.FieldInstructions),
		},
		Pricing: domain.NewQuote(view.Service, view.Fields),
	}

	if view.Service != nil {
		req.ServiceID = view.Service.ID
		req.Service = view.Service.Name
		for _, opt := range view.Service.Options {
			if v := view.TrimmedValue(domain.OptionField(opt.ID)); v != "" {
				if req.Options == nil {
					req.Options = make(map[string]string)
				}
				req.Options[opt.ID] = v
			}
		}
	}

	if m.registry.IsVisible(domain.StepAreaCheck, view) {
		req.Zip = view.TrimmedValue(domain.FieldZip)
		req.AreaName = view.AreaCheck.AreaName
	}
	if m.registry.IsVisible(domain.StepPets, view) {
		req.Pets = &ports.PetInfo{HasPets: view.TrimmedValue(domain.FieldHasPets) == "yes"}
		if req.Pets.HasPets {
			req.Pets.Details = view.TrimmedValue(domain.FieldPetDetails)
		}
	}
	if m.registry.IsVisible(domain.StepFrequency, view) {
		req.Frequency = view.TrimmedValue(domain.FieldFrequency)
	}
	if m.registry.IsVisible(domain.StepSchedule, view) && view.SelectedSlot != nil {
		slot := *view.SelectedSlot
		req.Slot = &slot
	}
	if view.Settings.PropertyAccessEnabled {
		if method := view.TrimmedValue(domain.FieldPropertyAccess); method != "" {
			req.Access = &ports.PropertyAccess{Method: method}
			if method == "other" {
				req.Access.Details = view.TrimmedValue(domain.FieldAccessDetails)
			}
		}
	}
	return req
}
