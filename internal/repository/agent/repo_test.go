package agent

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

func TestBuildUpdate_StatusOnly(t *testing.T) {
	id := uuid.New()
	st := domain.AgentBusy

	sql, args := buildUpdate(id, domain.AgentPatch{Status: &st})

	if !strings.Contains(sql, "SET status = $2 WHERE id = $1") {
		t.Errorf("unexpected sql: %s", sql)
	}
	if strings.Contains(sql, "name =") {
		t.Errorf("name must not be in write set: %s", sql)
	}
	if strings.Contains(sql, "location") && !strings.Contains(sql, "ST_X(location") {
		t.Errorf("location must never be written by Update: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[1] != st {
		t.Errorf("expected status arg, got %v", args[1])
	}
}

func TestBuildUpdate_NameAndStatus(t *testing.T) {
	id := uuid.New()
	name := "rider-7"
	st := domain.AgentOffline

	sql, args := buildUpdate(id, domain.AgentPatch{Name: &name, Status: &st})

	if !strings.Contains(sql, "name = $2") || !strings.Contains(sql, "status = $3") {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
}

func TestPointFrom(t *testing.T) {
	lon, lat := -122.4194, 37.7749

	p := pointFrom(&lon, &lat)
	if p == nil {
		t.Fatal("expected non-nil point")
	}
	if p.Lon != lon || p.Lat != lat {
		t.Errorf("unexpected point %+v", p)
	}

	if pointFrom(nil, &lat) != nil {
		t.Error("expected nil point when lon is nil")
	}
	if pointFrom(&lon, nil) != nil {
		t.Error("expected nil point when lat is nil")
	}
	if pointFrom(nil, nil) != nil {
		t.Error("expected nil point when both are nil")
	}
}
