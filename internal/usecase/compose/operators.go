package compose

import (
	"strings"

	"github.com/drivelane/carsearch/internal/domain/query"
)

// opRule maps contextual keywords to a comparison operator. Rules are
// checked in order; the first keyword found as a substring wins.
type opRule struct {
	keywords []string
	op       query.Operator
	approx   bool
}

var opRules = []opRule{
	{keywords: []string{"under", "below", "up to"}, op: query.LessThanOrEqual},
	{keywords: []string{"less than"}, op: query.LessThan},
	{keywords: []string{"over", "above", "at least"}, op: query.GreaterThanOrEqual},
	{keywords: []string{"more than", "greater than"}, op: query.GreaterThan},
	{keywords: []string{"between", "from"}, op: query.Between},
	{keywords: []string{"around", "about", "approximately", "roughly"}, op: query.Between, approx: true},
	{keywords: []string{"exactly", "is"}, op: query.Equals},
}

// InferOperator maps contextual keywords ("under", "around", ...) to a
// comparison operator. The approx flag is set for band keywords ("around"),
// where the caller widens a point value into a range. Matching is
// case-insensitive substring, first match wins; no match returns def.
func InferOperator(contextText string, def query.Operator) (op query.Operator, approx bool) {
	lower := strings.ToLower(contextText)
	for _, rule := range opRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.op, rule.approx
			}
		}
	}
	return def, false
}
