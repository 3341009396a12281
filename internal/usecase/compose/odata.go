package compose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/drivelane/carsearch/internal/domain/query"
)

// ToFilter serializes a composed query into the backend's OData-style filter
// grammar. Semantic constraints are soft preferences scored downstream and
// never appear in the filter. Every group is parenthesized; constraints join
// with the group operator, groups join with the query operator.
func ToFilter(q query.ComposedQuery) string {
	var groups []string
	for _, g := range q.Groups {
		var parts []string
		for _, c := range g.Constraints {
			if c.IsSemantic() {
				continue
			}
			parts = append(parts, renderConstraint(c))
		}
		if len(parts) == 0 {
			continue
		}
		joined := strings.Join(parts, " "+string(g.Operator)+" ")
		groups = append(groups, "("+joined+")")
	}

	groupOp := q.GroupOp
	if groupOp == "" {
		groupOp = query.And
	}
	return strings.Join(groups, " "+string(groupOp)+" ")
}

func renderConstraint(c query.Constraint) string {
	field := c.Field()
	switch c.Kind() {
	case query.KindText:
		if c.Op() == query.Contains {
			return fmt.Sprintf("contains(%s, %s)", field, stringLiteral(c.Text()))
		}
		return fmt.Sprintf("%s %s %s", field, c.Op(), textLiteral(c.Text()))
	case query.KindNumber:
		return fmt.Sprintf("%s %s %s", field, c.Op(), numberLiteral(c.Number()))
	case query.KindNumberRange:
		lo, hi := c.NumberRange()
		return fmt.Sprintf("(%s ge %s and %s le %s)", field, numberLiteral(lo), field, numberLiteral(hi))
	case query.KindDate:
		return fmt.Sprintf("%s %s %s", field, c.Op(), dateLiteral(c.Date()))
	case query.KindDateRange:
		lo, hi := c.DateRange()
		return fmt.Sprintf("(%s ge %s and %s le %s)", field, dateLiteral(lo), field, dateLiteral(hi))
	case query.KindList:
		escaped := make([]string, len(c.List()))
		for i, v := range c.List() {
			escaped[i] = strings.ReplaceAll(v, "'", "''")
		}
		return fmt.Sprintf("search.in(%s, '%s', ',')", field, strings.Join(escaped, ","))
	default:
		return ""
	}
}

// textLiteral renders an eq/ne operand: booleans are lowercase and unquoted,
// everything else is a quoted string.
func textLiteral(v string) string {
	switch strings.ToLower(v) {
	case "true", "false":
		return strings.ToLower(v)
	}
	return stringLiteral(v)
}

// stringLiteral single-quotes a string, doubling embedded quotes.
func stringLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// numberLiteral renders a number without a trailing fraction when integral.
func numberLiteral(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dateLiteral(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
