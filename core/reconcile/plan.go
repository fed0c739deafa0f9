package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNilSource is returned when a plan or run is requested without a source.
var ErrNilSource = errors.New("source is nil")

// BuildPlan loads the table from src and merges it.
// It does NOT write anything back; use ApplyPlan for that.
func BuildPlan(ctx context.Context, spec Spec, src Source) (*Plan, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	start := time.Now()

	t, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src.Name(), err)
	}

	res, err := Merge(t, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to merge %s: %w", src.Name(), err)
	}

	return &Plan{
		Source:   src.Name(),
		Spec:     spec.WithDefaults(),
		Summary:  res.Summary,
		Table:    res.Table,
		Built:    time.Now(),
		Duration: time.Since(start).String(),
	}, nil
}

// ApplyPlan writes the merged table of plan back through src.
// Nothing is written when opts.DryRun is set.
func ApplyPlan(ctx context.Context, src Source, plan *Plan, opts RunOptions) (applied bool, err error) {
	if opts.DryRun {
		return false, nil
	}
	if src == nil {
		return false, ErrNilSource
	}
	if plan == nil || plan.Table == nil {
		return false, fmt.Errorf("nothing to apply for %s: %w", src.Name(), ErrNilTable)
	}
	if err := src.Save(ctx, plan.Table, plan.Spec); err != nil {
		return false, fmt.Errorf("failed to save %s: %w", src.Name(), err)
	}
	return true, nil
}

// Run builds a plan for src and applies it.
func Run(ctx context.Context, spec Spec, src Source, opts RunOptions) (*Plan, error) {
	plan, err := BuildPlan(ctx, spec, src)
	if err != nil {
		return nil, err
	}
	if _, err := ApplyPlan(ctx, src, plan, opts); err != nil {
		return plan, err
	}
	return plan, nil
}
