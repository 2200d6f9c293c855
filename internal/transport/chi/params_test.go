package chi

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/catalog?limit=15", nil)

	v, err := queryInt(r, "limit", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 15 {
		t.Errorf("expected 15, got %d", v)
	}

	v, err = queryInt(r, "offset", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 0 {
		t.Errorf("expected default 0, got %d", v)
	}
}

func TestQueryInt_Malformed(t *testing.T) {
	r := httptest.NewRequest("GET", "/catalog?limit=abc", nil)

	if _, err := queryInt(r, "limit", 20); err == nil {
		t.Fatal("expected error for non-integer limit")
	}
}

func TestQueryFloat_PresenceFlag(t *testing.T) {
	r := httptest.NewRequest("GET", "/agents/nearby?lat=37.7749", nil)

	lat, ok, err := queryFloat(r, "lat")
	if err != nil || !ok {
		t.Fatalf("expected present lat, got ok=%v err=%v", ok, err)
	}
	if lat != 37.7749 {
		t.Errorf("expected 37.7749, got %v", lat)
	}

	_, ok, err = queryFloat(r, "lon")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected absent lon")
	}
}

func TestQueryTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/readings/x/aggregate?from=2025-06-15T00:00:00Z", nil)

	from, err := queryTime(r, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if from == nil || !from.Equal(want) {
		t.Errorf("expected %v, got %v", want, from)
	}

	to, err := queryTime(r, "to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if to != nil {
		t.Errorf("expected nil for absent param, got %v", to)
	}
}

func TestPageParams_ClampsToMax(t *testing.T) {
	s := &Server{maxPageSize: 100}
	r := httptest.NewRequest("GET", "/catalog?limit=5000&offset=10", nil)

	limit, offset, err := s.pageParams(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 100 {
		t.Errorf("expected clamp to 100, got %d", limit)
	}
	if offset != 10 {
		t.Errorf("expected offset 10, got %d", offset)
	}
}
