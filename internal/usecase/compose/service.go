// Package compose turns extracted query entities into an executable
// composed query: typed constraints grouped with logical operators, conflict
// detection and resolution, query-type classification, and the backend
// filter expression.
package compose

import (
	"go.uber.org/zap"

	"github.com/drivelane/carsearch/internal/domain"
	"github.com/drivelane/carsearch/internal/domain/query"
)

// WarnNoConstraints is attached when a parsed query maps to nothing.
const WarnNoConstraints = "No constraints provided"

// Service composes parsed queries into executable form.
type Service struct {
	parser *Parser
	logger *zap.Logger
}

// New creates a query composer.
func New(parser *Parser, logger *zap.Logger) *Service {
	return &Service{parser: parser, logger: logger}
}

// Parser exposes the underlying constraint parser (used by explain paths).
func (s *Service) Parser() *Parser { return s.parser }

// Compose maps the parsed query's entities to constraints, groups them,
// resolves conflicts, classifies the query, and renders the backend filter.
func (s *Service) Compose(parsed domain.ParsedQuery) (query.ComposedQuery, MappedQuery) {
	mapped := s.parser.MapToSearchQuery(parsed)

	groupOp := query.And
	if parsed.Disjunction {
		groupOp = query.Or
	}

	q := query.ComposedQuery{
		Type:    classify(mapped.Constraints),
		Groups:  buildGroups(mapped.Constraints, groupOp),
		GroupOp: groupOp,
	}

	if len(mapped.Constraints) == 0 {
		q.Warnings = append(q.Warnings, WarnNoConstraints)
	}

	conflicts := DetectConflicts(q)
	q.HasConflicts = len(conflicts) > 0
	q.Warnings = append(q.Warnings, conflicts...)

	q = ResolveConflicts(q)
	q.ODataFilter = ToFilter(q)

	if len(mapped.UnmappableTerms) > 0 {
		s.logger.Info("Query contains unmappable terms",
			zap.Strings("terms", mapped.UnmappableTerms))
	}
	s.logger.Debug("Composed query",
		zap.String("type", string(q.Type)),
		zap.Bool("has_conflicts", q.HasConflicts),
		zap.String("filter", q.ODataFilter))

	return q, mapped
}

// buildGroups separates hard (exact/range) constraints from semantic ones:
// hard constraints filter the index, semantic constraints steer scoring.
func buildGroups(cs []query.Constraint, op query.GroupOperator) []query.Group {
	var hard, soft []query.Constraint
	for _, c := range cs {
		if c.IsSemantic() {
			soft = append(soft, c)
		} else {
			hard = append(hard, c)
		}
	}

	var groups []query.Group
	if len(hard) > 0 {
		groups = append(groups, query.Group{Constraints: hard, Operator: op, Priority: 1.0})
	}
	if len(soft) > 0 {
		groups = append(groups, query.Group{Constraints: soft, Operator: query.And, Priority: 0.8})
	}
	return groups
}

// classify derives the query type from the constraint mix.
func classify(cs []query.Constraint) query.QueryType {
	exact, semantic := 0, 0
	for _, c := range cs {
		if c.IsSemantic() {
			semantic++
		} else {
			exact++
		}
	}
	switch {
	case semantic > 0 && exact > 0:
		return query.MultiModal
	case semantic > 0:
		return query.Complex
	case exact > 1:
		return query.Filtered
	default:
		return query.Simple
	}
}
