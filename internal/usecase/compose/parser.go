package compose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// Parser converts extracted entities into typed search constraints.
// Immutable after construction; safe for concurrent use.
type Parser struct {
	approxBand  float64
	qualitative map[string][]query.Constraint
	logger      *zap.Logger
}

// NewParser creates a constraint parser. approxBand is the ± fraction
// applied to "around"/"about" values; qualitative maps lowercased terms to
// their default constraints.
func NewParser(approxBand float64, qualitative map[string][]query.Constraint, logger *zap.Logger) *Parser {
	if approxBand <= 0 {
		approxBand = 0.10
	}
	return &Parser{approxBand: approxBand, qualitative: qualitative, logger: logger}
}

// ParseEntity converts one entity plus its surrounding context into zero or
// more constraints. An empty result means the entity is not translatable to
// a constraint; it is never a fatal error.
func (p *Parser) ParseEntity(e domain.ExtractedEntity, context string) []query.Constraint {
	switch e.Type {
	case domain.EntityMake:
		return p.one(query.NewText("make", query.Equals, e.Value, query.Exact))
	case domain.EntityLocation:
		return p.one(query.NewText("location", query.Equals, e.Value, query.Exact))
	case domain.EntityModel:
		return p.one(query.NewText("model", query.Contains, e.Value, query.Exact))
	case domain.EntityFeature:
		return p.one(query.NewText("features", query.Contains, e.Value, query.Exact))
	case domain.EntityPrice:
		return p.parseNumeric("price", e, context)
	case domain.EntityMileage:
		return p.parseNumeric("mileage", e, context)
	case domain.EntityPriceRange:
		return p.parseRange("price", e)
	case domain.EntityYear:
		return p.parseYear(e, context)
	case domain.EntityQualitative:
		return p.qualitative[strings.ToLower(strings.TrimSpace(e.Value))]
	default:
		p.logger.Debug("Skipping entity of unknown type", zap.String("type", string(e.Type)))
		return nil
	}
}

// parseNumeric handles Price and Mileage entities: the operator comes from
// the surrounding context, and band keywords widen the point value to
// value×(1±approxBand).
func (p *Parser) parseNumeric(field string, e domain.ExtractedEntity, context string) []query.Constraint {
	value, err := parseAmount(e.Value)
	if err != nil {
		p.logger.Warn("Dropping constraint with non-numeric value",
			zap.String("field", field), zap.String("value", e.Value), zap.Error(err))
		return nil
	}

	op, approx := InferOperator(context, query.Equals)
	if op == query.Between {
		// A single value with a band ("around") or span ("between", one end
		// extracted) keyword becomes a ± band range.
		lo := value * (1 - p.approxBand)
		hi := value * (1 + p.approxBand)
		return p.one(query.NewNumberRange(field, lo, hi, query.Range))
	}
	if approx {
		lo := value * (1 - p.approxBand)
		hi := value * (1 + p.approxBand)
		return p.one(query.NewNumberRange(field, lo, hi, query.Range))
	}

	t := query.Range
	if op == query.Equals {
		t = query.Exact
	}
	return p.one(query.NewNumber(field, op, value, t))
}

// parseRange handles explicit "A-B" ranges: both ends explicit, no banding.
func (p *Parser) parseRange(field string, e domain.ExtractedEntity) []query.Constraint {
	loStr, hiStr, ok := strings.Cut(e.Value, "-")
	if !ok {
		p.logger.Warn("Dropping malformed range constraint",
			zap.String("field", field), zap.String("value", e.Value))
		return nil
	}
	lo, errLo := parseAmount(loStr)
	hi, errHi := parseAmount(hiStr)
	if errLo != nil || errHi != nil {
		p.logger.Warn("Dropping range constraint with non-numeric bounds",
			zap.String("field", field), zap.String("value", e.Value))
		return nil
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return p.one(query.NewNumberRange(field, lo, hi, query.Range))
}

// parseYear produces registration-date constraints: "2020 or newer" becomes
// a lower bound, a plain year covers that calendar year.
func (p *Parser) parseYear(e domain.ExtractedEntity, context string) []query.Constraint {
	year, err := strconv.Atoi(strings.TrimSpace(e.Value))
	if err != nil || year < 1900 || year > 2100 {
		p.logger.Warn("Dropping constraint with invalid year", zap.String("value", e.Value))
		return nil
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	lower := strings.ToLower(context)
	if strings.Contains(lower, "or newer") || strings.Contains(lower, "or later") {
		return p.one(query.NewDate("registrationDate", query.GreaterThanOrEqual, start, query.Range))
	}

	end := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	return p.one(query.NewDateRange("registrationDate", start, end, query.Range))
}

func (p *Parser) one(c query.Constraint, err error) []query.Constraint {
	if err != nil {
		p.logger.Warn("Dropping invalid constraint", zap.Error(err))
		return nil
	}
	return []query.Constraint{c}
}

// parseAmount parses a human-formatted amount: currency symbols and
// thousands separators are stripped, and a trailing "k" multiplies by 1000.
func parseAmount(s string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ToLower(s))
	cleaned = strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "").Replace(cleaned)
	mult := 1.0
	if strings.HasSuffix(cleaned, "k") {
		cleaned = strings.TrimSuffix(cleaned, "k")
		mult = 1000
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v * mult, nil
}
