package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/wolfman30/tradeezy-assistant/pkg/logging"
)

func seededCatalog() *Catalog {
	repo := NewMemoryRepository(
		Service{ID: "s1", BusinessID: "biz-1", Name: "Swedish Massage", Description: "Relaxing", DurationMinutes: 60, Price: 90},
		Service{ID: "s2", BusinessID: "biz-1", Name: "Deep Tissue Massage", Description: "Firm pressure", DurationMinutes: 90, Price: 120},
		Service{ID: "s3", BusinessID: "biz-2", Name: "Facial", DurationMinutes: 45, Price: 70},
	)
	return New(repo, NewMatcher(75), logging.Discard())
}

func TestNormalizeFields(t *testing.T) {
	got := NormalizeFields([]string{"service_name", "PRICE", "bogus", "name"})
	if len(got) != 2 || got[0] != FieldName || got[1] != FieldPrice {
		t.Fatalf("unexpected fields: %v", got)
	}
	if got := NormalizeFields([]string{"bogus"}); len(got) != len(DefaultFields) {
		t.Fatalf("expected default fields, got %v", got)
	}
}

func TestListServicesProjectsFields(t *testing.T) {
	c := seededCatalog()
	listing, err := c.ListServices(context.Background(), "biz-1", []string{"name", "price"}, "")
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(listing.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(listing.Services))
	}

	raw, err := json.Marshal(listing)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Services []map[string]any `json:"services"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Services[0]) != 2 {
		t.Fatalf("expected only name and price, got %v", decoded.Services[0])
	}
	if _, ok := decoded.Services[0]["description"]; ok {
		t.Fatalf("description should be dropped: %v", decoded.Services[0])
	}
}

func TestListServicesFuzzyFilter(t *testing.T) {
	c := seededCatalog()
	listing, err := c.ListServices(context.Background(), "biz-1", nil, "deep tissue")
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(listing.Services) != 1 || listing.Services[0].ID != "s2" {
		t.Fatalf("unexpected services: %+v", listing.Services)
	}

	_, err = c.ListServices(context.Background(), "biz-1", nil, "haircut")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestListServicesEmptyBusiness(t *testing.T) {
	c := seededCatalog()
	_, err := c.ListServices(context.Background(), "biz-unknown", nil, "")
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	c := seededCatalog()
	svc, err := c.Resolve(context.Background(), "biz-1", "deep tissue")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if svc.DurationMinutes != 90 {
		t.Fatalf("expected catalog duration 90, got %d", svc.DurationMinutes)
	}
	if _, err := c.Resolve(context.Background(), "biz-1", "haircut"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestResolveAmbiguousName(t *testing.T) {
	c := seededCatalog()
	_, err := c.Resolve(context.Background(), "biz-1", "massage")
	if !errors.Is(err, ErrAmbiguousService) {
		t.Fatalf("expected ErrAmbiguousService, got %v", err)
	}
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected *AmbiguousError, got %T", err)
	}
	if len(amb.Candidates) != 2 || amb.Candidates[0] != "Swedish Massage" || amb.Candidates[1] != "Deep Tissue Massage" {
		t.Fatalf("unexpected candidates %v", amb.Candidates)
	}

	for _, q := range []string{"a", "s"} {
		if _, err := c.Resolve(context.Background(), "biz-1", q); !errors.Is(err, ErrServiceNotFound) {
			t.Fatalf("%q: expected ErrServiceNotFound, got %v", q, err)
		}
	}
}

func TestPostgresRepositoryListByBusiness(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT service_id, business_id, service_name`).
		WithArgs("biz-1").
		WillReturnRows(pgxmock.NewRows([]string{"service_id", "business_id", "service_name", "description", "duration_minutes", "price"}).
			AddRow("s1", "biz-1", "Swedish Massage", "Relaxing", 60, 90.0).
			AddRow("s2", "biz-1", "Deep Tissue Massage", "", 90, 120.5))

	repo := NewPostgresRepositoryWithDB(mock)
	services, err := repo.ListByBusiness(context.Background(), "biz-1")
	if err != nil {
		t.Fatalf("ListByBusiness: %v", err)
	}
	if len(services) != 2 || services[1].Price != 120.5 {
		t.Fatalf("unexpected services: %+v", services)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListServicesStoreFailureIsUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT service_id`).WithArgs("biz-1").WillReturnError(errors.New("connection refused"))

	c := New(NewPostgresRepositoryWithDB(mock), NewMatcher(75), logging.Discard())
	_, err = c.ListServices(context.Background(), "biz-1", nil, "")
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if errors.Is(err, ErrServiceNotFound) {
		t.Fatal("store failure must not look like an empty catalog")
	}
}
