package predicate

import "context"

// Composite combines predicates per spec.md §4.3: satisfied only when
// every predicate is satisfied, stale if any predicate reports stale,
// and the returned snapshot is the field-wise merge of every
// component's snapshot (later predicates win on overlapping fields).
func Composite(preds ...Predicate) Predicate {
	return func(ctx context.Context, in EvalInput) (Result, error) {
		var snap Snapshot
		satisfied := true
		stale := false

		for _, p := range preds {
			res, err := p(ctx, in)
			if err != nil {
				return Result{}, err
			}
			satisfied = satisfied && res.Satisfied
			stale = stale || res.Stale
			snap = snap.Merge(res.Snapshot)
		}

		return Result{
			Satisfied: satisfied && !stale,
			Stale:     stale,
			Snapshot:  snap,
		}, nil
	}
}
