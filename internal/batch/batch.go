// Package batch runs one operation across an ordered item list, isolating
// per-item failures so one bad item never aborts the rest.
package batch

import (
	"context"
	"fmt"
	"time"
)

// Outcome records the result of one item in a batch run.
type Outcome[T, R any] struct {
	Index    int
	Item     T
	Result   R
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the item completed without error.
func (o Outcome[T, R]) Succeeded() bool {
	return o.Err == nil
}

// Summary aggregates a completed run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// Run applies op to every item sequentially, in order, and returns exactly
// one outcome per item. Panics inside op are recovered and recorded as that
// item's failure. A cancelled context stops the run early; outcomes for
// unprocessed items record the context error.
func Run[T, R any](ctx context.Context, items []T, op func(ctx context.Context, item T) (R, error)) ([]Outcome[T, R], Summary) {
	start := time.Now()
	outcomes := make([]Outcome[T, R], 0, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(items); j++ {
				outcomes = append(outcomes, Outcome[T, R]{Index: j, Item: items[j], Err: err})
			}
			break
		}

		itemStart := time.Now()
		result, err := runOne(ctx, item, op)
		outcomes = append(outcomes, Outcome[T, R]{
			Index:    i,
			Item:     item,
			Result:   result,
			Err:      err,
			Duration: time.Since(itemStart),
		})
	}

	summary := Summary{Total: len(outcomes), Elapsed: time.Since(start)}
	for _, o := range outcomes {
		if o.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return outcomes, summary
}

func runOne[T, R any](ctx context.Context, item T, op func(ctx context.Context, item T) (R, error)) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("operation panicked: %v", r)
		}
	}()
	return op(ctx, item)
}
