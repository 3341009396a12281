package query

// GroupOperator joins constraints within a group, or groups within a query.
type GroupOperator string

// Logical join operators.
const (
	And GroupOperator = "and"
	Or  GroupOperator = "or"
)

// QueryType classifies a composed query by its constraint mix.
type QueryType string

// Query type constants.
const (
	Simple     QueryType = "simple"
	Filtered   QueryType = "filtered"
	Complex    QueryType = "complex"
	MultiModal QueryType = "multi_modal"
)

// Group is an ordered set of constraints joined by one logical operator.
type Group struct {
	Constraints []Constraint
	Operator    GroupOperator
	Priority    float64
}

// ComposedQuery is the executable form of one request. Ephemeral; never
// persisted or shared across requests.
type ComposedQuery struct {
	Type         QueryType
	Groups       []Group
	GroupOp      GroupOperator
	Warnings     []string
	HasConflicts bool
	ODataFilter  string
}

// CountByType returns the number of exact/range constraints and the number
// of semantic constraints across all groups.
func (q ComposedQuery) CountByType() (exact, semantic int) {
	for _, g := range q.Groups {
		for _, c := range g.Constraints {
			if c.IsSemantic() {
				semantic++
			} else {
				exact++
			}
		}
	}
	return exact, semantic
}

// Constraints returns every constraint across all groups in order.
func (q ComposedQuery) Constraints() []Constraint {
	var out []Constraint
	for _, g := range q.Groups {
		out = append(out, g.Constraints...)
	}
	return out
}
