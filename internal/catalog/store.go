package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidService rejects service writes with missing or out-of-range fields.
var ErrInvalidService = errors.New("catalog: invalid service")

// Store is the repository plus the write path used by the client portal.
type Store interface {
	Repository
	Get(ctx context.Context, businessID, serviceID string) (Service, error)
	Create(ctx context.Context, svc Service) (Service, error)
	Update(ctx context.Context, businessID, serviceID string, patch ServicePatch) (Service, error)
	Delete(ctx context.Context, businessID, serviceID string) error
}

// ServicePatch carries the fields of a partial update. Nil fields are kept.
type ServicePatch struct {
	Name            *string  `json:"service_name,omitempty"`
	Description     *string  `json:"description,omitempty"`
	DurationMinutes *int     `json:"duration_minutes,omitempty"`
	Price           *float64 `json:"price,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ServicePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.DurationMinutes == nil && p.Price == nil
}

// Validate checks the fields that are set.
func (p ServicePatch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return fmt.Errorf("%w: service_name must not be empty", ErrInvalidService)
	}
	if p.DurationMinutes != nil && *p.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidService)
	}
	if p.Price != nil && *p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	}
	return nil
}

// Apply returns svc with the patch applied.
func (p ServicePatch) Apply(svc Service) Service {
	if p.Name != nil {
		svc.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		svc.Description = *p.Description
	}
	if p.DurationMinutes != nil {
		svc.DurationMinutes = *p.DurationMinutes
	}
	if p.Price != nil {
		svc.Price = *p.Price
	}
	return svc
}

// ValidateNew checks a service about to be created.
func (s Service) ValidateNew() error {
	switch {
	case strings.TrimSpace(s.BusinessID) == "":
		return fmt.Errorf("%w: business_id is required", ErrInvalidService)
	case strings.TrimSpace(s.Name) == "":
		return fmt.Errorf("%w: service_name is required", ErrInvalidService)
	case s.DurationMinutes <= 0:
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidService)
	case s.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	}
	return nil
}
