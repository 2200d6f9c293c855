package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/fleetdex/internal/domain"
)

func TestBuildUpdate_SingleField(t *testing.T) {
	id := uuid.New()
	name := "Wireless Headphones"

	sql, args := buildUpdate(id, domain.CatalogPatch{Name: &name})

	if !strings.Contains(sql, "SET name = $2 WHERE id = $1") {
		t.Errorf("unexpected sql: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != id {
		t.Errorf("expected id as first arg, got %v", args[0])
	}
	if args[1] != name {
		t.Errorf("expected name as second arg, got %v", args[1])
	}
}

func TestBuildUpdate_AllFields(t *testing.T) {
	id := uuid.New()
	name := "n"
	desc := "d"
	attrs := map[string]any{"color": "black"}
	emb := []float32{0.1, 0.2}

	sql, args := buildUpdate(id, domain.CatalogPatch{
		Name:        &name,
		Description: &desc,
		Attributes:  &attrs,
		Embedding:   &emb,
	})

	for _, clause := range []string{"name = $2", "description = $3", "attributes = $4", "embedding = $5"} {
		if !strings.Contains(sql, clause) {
			t.Errorf("missing clause %q in sql: %s", clause, sql)
		}
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if _, ok := args[4].(pgvector.Vector); !ok {
		t.Errorf("expected embedding arg to be pgvector.Vector, got %T", args[4])
	}
	if !strings.Contains(sql, "RETURNING "+itemColumns) {
		t.Errorf("expected RETURNING clause in sql: %s", sql)
	}
}

func TestBuildUpdate_AbsentFieldsNotWritten(t *testing.T) {
	id := uuid.New()
	desc := "only description"

	sql, args := buildUpdate(id, domain.CatalogPatch{Description: &desc})

	if strings.Contains(sql, "name =") {
		t.Errorf("name must not be in write set: %s", sql)
	}
	if strings.Contains(sql, "embedding =") {
		t.Errorf("embedding must not be in write set: %s", sql)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}
