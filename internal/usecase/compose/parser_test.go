package compose

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

func testParser(t *testing.T) *Parser {
	t.Helper()
	qualitative := map[string][]query.Constraint{
		"cheap":       {mustNumber(t, "price", query.LessThanOrEqual, 12000, query.Semantic)},
		"economical":  {mustNumber(t, "engineSize", query.LessThanOrEqual, 2.0, query.Semantic), mustList(t, "fuelType", []string{"Electric", "Hybrid"}, query.Semantic)},
		"low mileage": {mustNumber(t, "mileage", query.LessThanOrEqual, 30000, query.Semantic)},
	}
	return NewParser(0.10, qualitative, zap.NewNop())
}

func mustNumber(t *testing.T, field string, op query.Operator, v float64, ct query.Type) query.Constraint {
	t.Helper()
	c, err := query.NewNumber(field, op, v, ct)
	if err != nil {
		t.Fatalf("NewNumber: %v", err)
	}
	return c
}

func mustList(t *testing.T, field string, values []string, ct query.Type) query.Constraint {
	t.Helper()
	c, err := query.NewList(field, values, ct)
	if err != nil {
		t.Fatalf("NewList: %v", err)
	}
	return c
}

func entity(et domain.EntityType, value string) domain.ExtractedEntity {
	return domain.ExtractedEntity{Type: et, Value: value, Confidence: 0.9}
}

func TestParseEntity_MakeAndLocation(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityMake, "BMW"), "")
	if len(cs) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(cs))
	}
	if cs[0].Field() != "make" || cs[0].Op() != query.Equals || cs[0].Text() != "BMW" {
		t.Errorf("unexpected constraint: %+v", cs[0])
	}
	if cs[0].CType() != query.Exact {
		t.Errorf("expected exact type, got %q", cs[0].CType())
	}

	cs = p.ParseEntity(entity(domain.EntityLocation, "Leeds"), "")
	if len(cs) != 1 || cs[0].Field() != "location" || cs[0].Op() != query.Equals {
		t.Fatalf("unexpected location constraints: %+v", cs)
	}
}

func TestParseEntity_ModelAndFeatureUseContains(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityModel, "3 Series"), "")
	if len(cs) != 1 || cs[0].Op() != query.Contains || cs[0].Field() != "model" {
		t.Fatalf("unexpected model constraints: %+v", cs)
	}

	cs = p.ParseEntity(entity(domain.EntityFeature, "sunroof"), "")
	if len(cs) != 1 || cs[0].Op() != query.Contains || cs[0].Field() != "features" {
		t.Fatalf("unexpected feature constraints: %+v", cs)
	}
}

func TestParseEntity_PriceOperatorFromContext(t *testing.T) {
	p := testParser(t)

	tests := []struct {
		context string
		wantOp  query.Operator
	}{
		{"under 15000", query.LessThanOrEqual},
		{"less than 15000", query.LessThan},
		{"over 15000", query.GreaterThanOrEqual},
		{"more than 15000", query.GreaterThan},
		{"exactly 15000", query.Equals},
	}
	for _, tt := range tests {
		t.Run(tt.context, func(t *testing.T) {
			cs := p.ParseEntity(entity(domain.EntityPrice, "15000"), tt.context)
			if len(cs) != 1 {
				t.Fatalf("expected 1 constraint, got %d", len(cs))
			}
			if cs[0].Op() != tt.wantOp {
				t.Errorf("op = %q, want %q", cs[0].Op(), tt.wantOp)
			}
			if cs[0].Number() != 15000 {
				t.Errorf("value = %v, want 15000", cs[0].Number())
			}
		})
	}
}

func TestParseEntity_ApproxBecomesBand(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityPrice, "10000"), "around 10000")
	if len(cs) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(cs))
	}
	if cs[0].Op() != query.Between {
		t.Fatalf("expected between, got %q", cs[0].Op())
	}
	lo, hi := cs[0].NumberRange()
	if lo != 9000 || hi != 11000 {
		t.Errorf("band = [%v,%v], want [9000,11000]", lo, hi)
	}
}

func TestParseEntity_PriceRangeExplicitBounds(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityPriceRange, "15000-25000"), "")
	if len(cs) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(cs))
	}
	lo, hi := cs[0].NumberRange()
	if lo != 15000 || hi != 25000 {
		t.Errorf("range = [%v,%v], want [15000,25000] (no banding)", lo, hi)
	}
}

func TestParseEntity_AmountFormats(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityPrice, "£15,000"), "under £15,000")
	if len(cs) != 1 || cs[0].Number() != 15000 {
		t.Fatalf("currency format not parsed: %+v", cs)
	}

	cs = p.ParseEntity(entity(domain.EntityPrice, "15k"), "under 15k")
	if len(cs) != 1 || cs[0].Number() != 15000 {
		t.Fatalf("k suffix not parsed: %+v", cs)
	}
}

func TestParseEntity_Year(t *testing.T) {
	p := testParser(t)

	t.Run("or newer", func(t *testing.T) {
		cs := p.ParseEntity(entity(domain.EntityYear, "2020"), "2020 or newer")
		if len(cs) != 1 {
			t.Fatalf("expected 1 constraint, got %d", len(cs))
		}
		if cs[0].Op() != query.GreaterThanOrEqual {
			t.Fatalf("expected ge, got %q", cs[0].Op())
		}
		want := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
		if !cs[0].Date().Equal(want) {
			t.Errorf("date = %v, want %v", cs[0].Date(), want)
		}
	})

	t.Run("plain year covers the calendar year", func(t *testing.T) {
		cs := p.ParseEntity(entity(domain.EntityYear, "2019"), "a 2019 car")
		if len(cs) != 1 {
			t.Fatalf("expected 1 constraint, got %d", len(cs))
		}
		lo, hi := cs[0].DateRange()
		if lo.Year() != 2019 || hi.Year() != 2019 || lo.Month() != time.January || hi.Month() != time.December {
			t.Errorf("date range = [%v,%v]", lo, hi)
		}
	})
}

func TestParseEntity_Qualitative(t *testing.T) {
	p := testParser(t)

	cs := p.ParseEntity(entity(domain.EntityQualitative, "Economical"), "")
	if len(cs) != 2 {
		t.Fatalf("expected 2 constraints for economical, got %d", len(cs))
	}
	for _, c := range cs {
		if c.CType() != query.Semantic {
			t.Errorf("qualitative constraint on %s not typed semantic", c.Field())
		}
	}

	if cs := p.ParseEntity(entity(domain.EntityQualitative, "turbocharged"), ""); cs != nil {
		t.Errorf("unknown term should map to nothing, got %+v", cs)
	}
}

func TestParseEntity_NonNumericDropped(t *testing.T) {
	p := testParser(t)

	for _, et := range []domain.EntityType{domain.EntityPrice, domain.EntityMileage, domain.EntityYear} {
		if cs := p.ParseEntity(entity(et, "plenty"), "under plenty"); len(cs) != 0 {
			t.Errorf("%s with non-numeric value should drop, got %+v", et, cs)
		}
	}
}

func TestMapToSearchQuery_UnmappableTerms(t *testing.T) {
	p := testParser(t)

	parsed := domain.ParsedQuery{
		OriginalQuery: "a cheap BMW under gazillion",
		Entities: []domain.ExtractedEntity{
			{Type: domain.EntityMake, Value: "BMW", SpanStart: 8, SpanEnd: 11},
			{Type: domain.EntityPrice, Value: "gazillion", SpanStart: 18, SpanEnd: 27},
			{Type: domain.EntityQualitative, Value: "cheap", SpanStart: 2, SpanEnd: 7},
		},
	}

	mapped := p.MapToSearchQuery(parsed)
	if len(mapped.Constraints) != 2 {
		t.Fatalf("expected 2 constraints (make + cheap), got %d", len(mapped.Constraints))
	}
	if len(mapped.UnmappableTerms) != 1 || mapped.UnmappableTerms[0] != "gazillion" {
		t.Errorf("unmappable terms = %v, want [gazillion]", mapped.UnmappableTerms)
	}
	// Input entity order is preserved.
	if mapped.Constraints[0].Field() != "make" {
		t.Errorf("first constraint should come from the first entity, got %s", mapped.Constraints[0].Field())
	}
}
