package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

var (
	// ErrServiceNotFound means the business offers nothing matching the request.
	ErrServiceNotFound = errors.New("catalog: service not found")
	// ErrCatalogUnavailable means the catalog could not be read at all.
	ErrCatalogUnavailable = errors.New("catalog: unavailable")
	// ErrAmbiguousService means a name fits more than one service equally well.
	ErrAmbiguousService = errors.New("catalog: ambiguous service name")
)

// AmbiguousError lists the services a name could refer to.
type AmbiguousError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%v: %q matches %s", ErrAmbiguousService, e.Query, strings.Join(e.Candidates, ", "))
}

func (e *AmbiguousError) Is(target error) bool { return target == ErrAmbiguousService }

// Service is one bookable offering of a business.
type Service struct {
	ID              string  `json:"service_id"`
	BusinessID      string  `json:"business_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
}

// Field names accepted in a listing allow-list.
const (
	FieldServiceID       = "service_id"
	FieldName            = "name"
	FieldDescription     = "description"
	FieldDurationMinutes = "duration_minutes"
	FieldPrice           = "price"
)

// DefaultFields is used when the caller asks for nothing recognizable.
var DefaultFields = []string{FieldName, FieldDescription, FieldDurationMinutes, FieldPrice}

var fieldAliases = map[string]string{
	FieldServiceID:       FieldServiceID,
	"id":                 FieldServiceID,
	FieldName:            FieldName,
	"service_name":       FieldName,
	FieldDescription:     FieldDescription,
	FieldDurationMinutes: FieldDurationMinutes,
	"duration":           FieldDurationMinutes,
	FieldPrice:           FieldPrice,
}

// NormalizeFields maps requested attribute names onto the allow-list, dropping
// unknown names and duplicates. An empty result yields DefaultFields.
func NormalizeFields(fields []string) []string {
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		canonical, ok := fieldAliases[strings.ToLower(strings.TrimSpace(f))]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultFields...)
	}
	return out
}

// Listing is a set of services restricted to the requested attributes.
type Listing struct {
	Fields   []string
	Services []Service
}

// Has reports whether the listing carries the given field.
func (l Listing) Has(field string) bool {
	for _, f := range l.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Rows projects each service onto the listing's fields.
func (l Listing) Rows() []map[string]any {
	rows := make([]map[string]any, 0, len(l.Services))
	for _, svc := range l.Services {
		row := make(map[string]any, len(l.Fields))
		for _, f := range l.Fields {
			switch f {
			case FieldServiceID:
				row[f] = svc.ID
			case FieldName:
				row[f] = svc.Name
			case FieldDescription:
				row[f] = svc.Description
			case FieldDurationMinutes:
				row[f] = svc.DurationMinutes
			case FieldPrice:
				row[f] = svc.Price
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// MarshalJSON renders {"services":[...]} with only the listed fields.
func (l Listing) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"services": l.Rows()})
}

// Repository reads a business's services from storage.
type Repository interface {
	ListByBusiness(ctx context.Context, businessID string) ([]Service, error)
}

// Catalog answers service listing and name resolution questions.
type Catalog struct {
	repo    Repository
	matcher Matcher
	logger  *logging.Logger
}

// New builds a catalog over repo.
func New(repo Repository, matcher Matcher, logger *logging.Logger) *Catalog {
	if repo == nil {
		panic("catalog: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Catalog{repo: repo, matcher: matcher, logger: logger}
}

// ListServices returns the business's services projected onto fields. When
// nameFilter is set only services whose name contains or fuzzily matches it
// are kept.
func (c *Catalog) ListServices(ctx context.Context, businessID string, fields []string, nameFilter string) (Listing, error) {
	all, err := c.load(ctx, businessID)
	if err != nil {
		return Listing{}, err
	}
	listing := Listing{Fields: NormalizeFields(fields)}

	filter := strings.TrimSpace(nameFilter)
	for _, svc := range all {
		if filter == "" || c.matcher.Matches(filter, svc.Name) {
			listing.Services = append(listing.Services, svc)
		}
	}
	if len(listing.Services) == 0 {
		return listing, ErrServiceNotFound
	}
	return listing, nil
}

// Resolve picks the single best catalog entry for a free-text name. A name
// that fits several services equally well yields an *AmbiguousError.
func (c *Catalog) Resolve(ctx context.Context, businessID, name string) (Service, error) {
	all, err := c.load(ctx, businessID)
	if err != nil {
		return Service{}, err
	}
	names := make([]string, len(all))
	for i, svc := range all {
		names[i] = svc.Name
	}
	top, score := c.matcher.Rank(name, names)
	switch len(top) {
	case 0:
		c.logger.Debug("catalog: no service matched", "business_id", businessID, "query", name, "best_score", score)
		return Service{}, ErrServiceNotFound
	case 1:
		return all[top[0]], nil
	}
	amb := &AmbiguousError{Query: name}
	for _, i := range top {
		amb.Candidates = append(amb.Candidates, all[i].Name)
	}
	c.logger.Debug("catalog: ambiguous service name", "business_id", businessID, "query", name, "candidates", strings.Join(amb.Candidates, ","))
	return Service{}, amb
}

func (c *Catalog) load(ctx context.Context, businessID string) ([]Service, error) {
	all, err := c.repo.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	return all, nil
}
