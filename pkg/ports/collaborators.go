package ports

import (
	"context"

	"github.com/aretw0/bookflow/pkg/domain"
)

// AreaCheckRequest is the payload sent to the area-check collaborator.
type AreaCheckRequest struct {
	Zip string `json:"zip"`
}

// AreaCheckResponse is the answer of the area-check collaborator.
type AreaCheckResponse struct {
	Serviceable bool   `json:"serviceable"`
	AreaName    string `json:"area_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

// AreaChecker verifies whether a postal code falls within a serviceable region.
// Implementations must honour ctx cancellation; latency is otherwise opaque.
type AreaChecker interface {
	CheckArea(ctx context.Context, req AreaCheckRequest) (AreaCheckResponse, error)
}

// SlotQuery asks for the available slots of a date.
type SlotQuery struct {
	Date      string `json:"date"`
	ServiceID string `json:"service_id,omitempty"`
	// Duration of the service in minutes. Zero means the provider's default.
	Duration int `json:"duration,omitempty"`
}

// SlotProvider lists the bookable slots of a date, in chronological order.
type SlotProvider interface {
	AvailableSlots(ctx context.Context, q SlotQuery) ([]domain.AvailableSlot, error)
}

// Calendar is the source of truth for disabled calendar days.
type Calendar interface {
	IsDisabled(date string) bool
}

// ServiceCatalog supplies the bookable services.
type ServiceCatalog interface {
	Services(ctx context.Context) ([]domain.Service, error)
}

// Customer holds the contact details of a booking.
type Customer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Instructions string `json:"instructions,omitempty"`
}

// PetInfo describes pets present at the property.
type PetInfo struct {
	HasPets bool   `json:"has_pets"`
	Details string `json:"details,omitempty"`
}

// PropertyAccess describes how the provider enters the property.
type PropertyAccess struct {
	Method  string `json:"method,omitempty"`
	Details string `json:"details,omitempty"`
}

// BookingRequest carries every value the visitor entered.
type BookingRequest struct {
	SessionID string                `json:"session_id"`
	Zip       string                `json:"zip,omitempty"`
	AreaName  string                `json:"area_name,omitempty"`
	ServiceID string                `json:"service_id"`
	Service   string                `json:"service_name"`
	Options   map[string]string     `json:"options,omitempty"`
	Frequency string                `json:"frequency,omitempty"`
	Pets      *PetInfo              `json:"pets,omitempty"`
	Slot      *domain.AvailableSlot `json:"slot,omitempty"`
	Customer  Customer              `json:"customer"`
	Access    *PropertyAccess       `json:"access,omitempty"`
	Pricing   domain.Quote          `json:"pricing"`
}

// BookingConfirmation is returned by the submission collaborator on success.
type BookingConfirmation struct {
	BookingID string `json:"booking_id"`
}

// Submitter receives the final booking.
type Submitter interface {
	Submit(ctx context.Context, req BookingRequest) (BookingConfirmation, error)
}

// BookingSubmitted is the event announced after a booking is accepted.
type BookingSubmitted struct {
	BookingID string         `json:"booking_id"`
	Request   BookingRequest `json:"request"`
}

// EventPublisher announces booking events to other systems.
type EventPublisher interface {
	PublishSubmitted(ctx context.Context, evt BookingSubmitted) error
}
