package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

type Options struct {
	// Workers is the fixed pool width. At most Workers items are processed concurrently;
	// the rest queue until a worker frees up.
	Workers int
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Index  int
	Input  In
	Output Out
	Err    error
}

// PanicError is returned in Result.Err when the processor panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	if e == nil {
		return "worker panic"
	}
	return fmt.Sprintf("worker panic: %v", e.Value)
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 10
	}
	return o
}

// ProcessAll runs the processor over all input items and returns results in input order.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	opts Options,
) []Result[In, Out] {
	return ProcessAllWithCallback(ctx, items, processor, nil, opts)
}

// ProcessAllWithCallback runs the processor over all input items and invokes onResult
// as each item completes. The callback receives completion-order results and is called
// from a single goroutine.
//
// Every item is dispatched and yields exactly one Result, even when ctx is done or the
// processor panics; the processor is responsible for honoring ctx.
func ProcessAllWithCallback[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	onResult func(Result[In, Out]),
	opts Options,
) []Result[In, Out] {
	opts = opts.withDefaults()
	workers := opts.Workers
	if workers > len(items) {
		workers = len(items)
	}

	out := make([]Result[In, Out], len(items))
	if len(items) == 0 {
		return out
	}

	type job struct {
		idx int
		in  In
	}

	jobs := make(chan job)
	done := make(chan Result[In, Out], workers)

	var wg sync.WaitGroup
	workerFn := func() {
		defer wg.Done()
		for j := range jobs {
			done <- processOne(ctx, j.idx, j.in, processor)
		}
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go workerFn()
	}

	go func() {
		defer close(jobs)
		for i, item := range items {
			jobs <- job{idx: i, in: item}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	for res := range done {
		out[res.Index] = res
		if onResult != nil {
			onResult(res)
		}
	}
	return out
}

func processOne[In any, Out any](
	ctx context.Context,
	idx int,
	item In,
	processor func(context.Context, In) (Out, error),
) (res Result[In, Out]) {
	res = Result[In, Out]{Index: idx, Input: item}
	defer func() {
		if r := recover(); r != nil {
			var zero Out
			res.Output = zero
			res.Err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	res.Output, res.Err = processor(ctx, item)
	return res
}
