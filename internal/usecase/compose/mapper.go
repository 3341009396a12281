package compose

import (
	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// contextWindow is how many characters before an entity span are inspected
// for operator keywords ("under 15000" puts "under" just before the value).
const contextWindow = 30

// MappedQuery is the result of mapping every entity of a parsed query.
type MappedQuery struct {
	Constraints []query.Constraint
	// UnmappableTerms lists entity values that produced no constraints,
	// kept for observability.
	UnmappableTerms []string
}

// MapToSearchQuery runs the parser over every entity in input order and
// concatenates the results. Entities mapping to zero constraints are
// recorded in UnmappableTerms rather than treated as errors.
func (p *Parser) MapToSearchQuery(parsed domain.ParsedQuery) MappedQuery {
	var mapped MappedQuery
	for _, e := range parsed.Entities {
		constraints := p.ParseEntity(e, entityContext(parsed.OriginalQuery, e))
		if len(constraints) == 0 {
			mapped.UnmappableTerms = append(mapped.UnmappableTerms, e.Value)
			continue
		}
		mapped.Constraints = append(mapped.Constraints, constraints...)
	}
	return mapped
}

// entityContext returns the slice of the original query surrounding the
// entity span, where operator keywords live.
func entityContext(original string, e domain.ExtractedEntity) string {
	if original == "" {
		return ""
	}
	start := e.SpanStart - contextWindow
	if start < 0 {
		start = 0
	}
	end := e.SpanEnd
	if end <= 0 || end > len(original) {
		end = len(original)
	}
	if start > end {
		start = 0
	}
	return original[start:end]
}
