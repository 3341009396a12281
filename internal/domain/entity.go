package domain

// EntityType classifies an extracted query entity.
type EntityType string

// Entity type constants produced by the upstream NLU collaborator.
const (
	EntityMake        EntityType = "make"
	EntityModel       EntityType = "model"
	EntityPrice       EntityType = "price"
	EntityPriceRange  EntityType = "price_range"
	EntityMileage     EntityType = "mileage"
	EntityFeature     EntityType = "feature"
	EntityLocation    EntityType = "location"
	EntityYear        EntityType = "year"
	EntityQualitative EntityType = "qualitative"
)

// ExtractedEntity is one structured entity pulled out of a raw query.
// Immutable; produced upstream by the NLU service.
type ExtractedEntity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	SpanStart  int        `json:"spanStart"`
	SpanEnd    int        `json:"spanEnd"`
}

// ParsedQuery is the NLU service's view of one natural-language query.
// The core never parses raw text itself.
type ParsedQuery struct {
	OriginalQuery string            `json:"originalQuery"`
	Intent        string            `json:"intent"`
	Entities      []ExtractedEntity `json:"entities"`
	Confidence    float64           `json:"confidenceScore"`
	// Disjunction is set by the NLU when the query asks for alternatives
	// ("BMW or Audi"); it switches constraint groups to Or semantics.
	Disjunction bool `json:"disjunction"`
}

// EntitiesOfType returns the entities matching the given type, in input order.
func (p ParsedQuery) EntitiesOfType(t EntityType) []ExtractedEntity {
	var out []ExtractedEntity
	for _, e := range p.Entities {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
