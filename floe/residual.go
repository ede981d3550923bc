package floe

// -----------------------------------------------------------------------------
// Residual evaluation
// -----------------------------------------------------------------------------

// ResidualEvaluator computes, for a file's partition values, the part of a
// row filter that partition pruning cannot eliminate.
type ResidualEvaluator interface {
	// ResidualFor returns the filter that must still be evaluated per row
	// for a file with the given partition values.
	ResidualFor(partition map[string]any) Expression
}

// UnpartitionedResidual returns the evaluator for unpartitioned data: with
// no partition columns to bind, the residual is the filter unchanged.
func UnpartitionedResidual(filter Expression) ResidualEvaluator {
	if filter == nil {
		filter = AlwaysTrue()
	}
	return unpartitionedResidual{filter: filter}
}

// ResidualOf builds a residual evaluator for the given spec and filter.
//
// Partitioned specs use a conservative evaluator that returns the whole
// filter without binding partition predicates: it never eliminates a
// predicate it cannot prove.
func ResidualOf(spec *PartitionSpec, filter Expression, caseSensitive bool) ResidualEvaluator {
	if filter == nil {
		filter = AlwaysTrue()
	}
	if spec.IsUnpartitioned() {
		return unpartitionedResidual{filter: filter}
	}
	return conservativeResidual{spec: spec, filter: filter, caseSensitive: caseSensitive}
}

type unpartitionedResidual struct {
	filter Expression
}

func (u unpartitionedResidual) ResidualFor(_ map[string]any) Expression {
	return u.filter
}

type conservativeResidual struct {
	spec          *PartitionSpec
	filter        Expression
	caseSensitive bool
}

func (c conservativeResidual) ResidualFor(_ map[string]any) Expression {
	return c.filter
}
