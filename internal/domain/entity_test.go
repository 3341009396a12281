package domain

import "testing"

func TestEntitiesOfType(t *testing.T) {
	parsed := ParsedQuery{
		Entities: []ExtractedEntity{
			{Type: EntityMake, Value: "BMW"},
			{Type: EntityQualitative, Value: "cheap"},
			{Type: EntityQualitative, Value: "reliable"},
			{Type: EntityYear, Value: "2020"},
		},
	}

	got := parsed.EntitiesOfType(EntityQualitative)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Value != "cheap" || got[1].Value != "reliable" {
		t.Errorf("values = %q, %q", got[0].Value, got[1].Value)
	}

	if out := parsed.EntitiesOfType(EntityLocation); out != nil {
		t.Errorf("expected nil for absent type, got %v", out)
	}
}
