// Package rank scores, re-orders, and diversifies search candidates.
package rank

import (
	"strings"

	"github.com/drivelane/carsearch/internal/domain/concept"
)

// ConceptMapper resolves qualitative terms to configured attribute mappings.
// The dictionary is loaded once at startup and read-only thereafter.
type ConceptMapper struct {
	mappings map[string]concept.Mapping
}

// NewConceptMapper builds a mapper over validated concept mappings. Keys are
// normalized to lowercase so lookups are case-insensitive.
func NewConceptMapper(mappings map[string]concept.Mapping) *ConceptMapper {
	normalized := make(map[string]concept.Mapping, len(mappings))
	for term, m := range mappings {
		normalized[strings.ToLower(strings.TrimSpace(term))] = m
	}
	return &ConceptMapper{mappings: normalized}
}

// Map looks up the mapping for a concept term. Unknown terms are absent,
// not an error.
func (cm *ConceptMapper) Map(term string) (concept.Mapping, bool) {
	m, ok := cm.mappings[strings.ToLower(strings.TrimSpace(term))]
	return m, ok
}

// Concepts returns the known concept terms, for diagnostics.
func (cm *ConceptMapper) Concepts() []string {
	terms := make([]string, 0, len(cm.mappings))
	for t := range cm.mappings {
		terms = append(terms, t)
	}
	return terms
}
