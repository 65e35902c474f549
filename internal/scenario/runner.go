package scenario

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pavanmanishd/emplace"
)

// record heads every placed composite.
type record struct {
	Worker uint64
	Seq    uint64
}

// segment heads the tail of a nested composite.
type segment struct {
	Len uint64
	Sum uint64
}

type (
	flat   = emplace.Dst[record, []uint64]
	nested = emplace.Dst[record, emplace.Dst[segment, []uint64]]
)

// Result summarises one scenario run.
type Result struct {
	Name       string                `json:"name" msgpack:"name"`
	Allocator  string                `json:"allocator" msgpack:"allocator"`
	Workers    int                   `json:"workers" msgpack:"workers"`
	Placements int                   `json:"placements" msgpack:"placements"`
	Fallbacks  int                   `json:"fallbacks" msgpack:"fallbacks"`
	Bytes      uint64                `json:"bytes" msgpack:"bytes"`
	Duration   time.Duration         `json:"duration_ns" msgpack:"duration_ns"`
	Arena      *emplace.ArenaMetrics `json:"arena,omitempty" msgpack:"arena,omitempty"`
}

// Runner executes scenarios.
type Runner struct {
	log *zap.Logger
}

// NewRunner returns a Runner logging to log. A nil log discards output.
func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

// RunAll runs every scenario in cfg in order and stops at the first error.
func (r *Runner) RunAll(ctx context.Context, cfg Config) ([]Result, error) {
	results := make([]Result, 0, len(cfg.Scenarios))
	for _, sc := range cfg.Scenarios {
		res, err := r.Run(ctx, sc)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// target is the allocator a scenario places into.
type target struct {
	alloc   emplace.Allocator
	metrics func() emplace.ArenaMetrics
	release func()
}

func (r *Runner) target(sc Scenario) target {
	opts := []emplace.Option{emplace.WithLogger(r.log)}
	if sc.MaxCapacity > 0 {
		opts = append(opts, emplace.WithMaxCapacity(sc.MaxCapacity))
	}
	switch sc.Allocator {
	case AllocArena:
		a := emplace.NewArena(sc.ChunkSize, opts...)
		return target{alloc: a, metrics: a.Metrics, release: a.Release}
	case AllocSafeArena:
		a := emplace.NewSafeArena(sc.ChunkSize, opts...)
		return target{alloc: a, metrics: a.Metrics, release: a.Release}
	default:
		if sc.MaxCapacity > 0 {
			b := emplace.NewBudget(emplace.Heap, uintptr(sc.MaxCapacity))
			return target{alloc: b, release: func() {}}
		}
		return target{alloc: emplace.Heap, release: func() {}}
	}
}

// Run places sc.Iterations composites on each of sc.Workers goroutines.
// Placements the allocator refuses are retried on the heap and counted as
// fallbacks. Every placed value is read back and checked before release.
func (r *Runner) Run(ctx context.Context, sc Scenario) (Result, error) {
	if err := sc.validate(); err != nil {
		return Result{}, err
	}
	tg := r.target(sc)
	defer tg.release()

	stats := make([]workerStats, sc.Workers)
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := range sc.Workers {
		g.Go(func() error {
			return runWorker(ctx, tg.alloc, sc, uint64(w), &stats[w])
		})
	}
	err := g.Wait()
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Name:      sc.Name,
		Allocator: sc.Allocator,
		Workers:   sc.Workers,
		Duration:  elapsed,
	}
	for _, s := range stats {
		res.Placements += s.placements
		res.Fallbacks += s.fallbacks
		res.Bytes += s.bytes
	}
	if tg.metrics != nil {
		m := tg.metrics()
		res.Arena = &m
	}
	r.log.Info("scenario finished",
		zap.String("name", res.Name),
		zap.String("allocator", res.Allocator),
		zap.Int("placements", res.Placements),
		zap.Int("fallbacks", res.Fallbacks),
		zap.Uint64("bytes", res.Bytes),
		zap.Duration("duration", res.Duration))
	return res, nil
}

type workerStats struct {
	placements int
	fallbacks  int
	bytes      uint64
}

func runWorker(ctx context.Context, a emplace.Allocator, sc Scenario, worker uint64, st *workerStats) error {
	for i := range sc.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr := record{Worker: worker, Seq: uint64(i)}
		base := worker<<32 | uint64(i)
		var err error
		if sc.Nested {
			err = placeNested(a, hdr, base, sc.TailLen, st)
		} else {
			err = placeFlat(a, hdr, base, sc.TailLen, st)
		}
		if err != nil {
			return fmt.Errorf("worker %d iteration %d: %w", worker, i, err)
		}
	}
	return nil
}

// counter yields base, base+1, ...
func counter(base uint64) func() uint64 {
	next := base
	return func() uint64 {
		v := next
		next++
		return v
	}
}

// sumFrom is base + (base+1) + ... over n terms.
func sumFrom(base uint64, n int) uint64 {
	un := uint64(n)
	return un*base + un*(un-1)/2
}

func placeFlat(a emplace.Allocator, hdr record, base uint64, n int, st *workerStats) error {
	tail, err := emplace.NewSliceFunc(n, counter(base))
	if err != nil {
		return err
	}
	box, err := boxIn[flat](a, emplace.NewComposite(hdr, tail), st)
	if err != nil {
		return err
	}
	defer box.Release()
	d := box.Get()
	if *d.Header() != hdr {
		return fmt.Errorf("header read back as %+v", *d.Header())
	}
	return checkTail(d.Tail(), base, n)
}

func placeNested(a emplace.Allocator, hdr record, base uint64, n int, st *workerStats) error {
	tail, err := emplace.NewSliceFunc(n, counter(base))
	if err != nil {
		return err
	}
	seg := segment{Len: uint64(n), Sum: sumFrom(base, n)}
	init := emplace.NewComposite(hdr, emplace.Initializer[emplace.Dst[segment, []uint64]](emplace.NewComposite(seg, tail)))
	box, err := boxIn[nested](a, init, st)
	if err != nil {
		return err
	}
	defer box.Release()
	d := box.Get()
	if *d.Header() != hdr {
		return fmt.Errorf("header read back as %+v", *d.Header())
	}
	inner := d.Tail()
	if *inner.Header() != seg {
		return fmt.Errorf("segment read back as %+v", *inner.Header())
	}
	return checkTail(inner.Tail(), base, n)
}

// boxIn places init in a, retrying on the heap with the returned
// initializer if a refuses.
func boxIn[O any](a emplace.Allocator, init emplace.Initializer[O], st *workerStats) (*emplace.Box[O], error) {
	box, err := emplace.NewIn(a, init)
	if err != nil {
		var ae *emplace.AllocError[O]
		if !errors.As(err, &ae) || !errors.Is(err, emplace.ErrOutOfMemory) {
			return nil, err
		}
		st.fallbacks++
		box, err = emplace.New(ae.Init)
		if err != nil {
			return nil, err
		}
	}
	st.placements++
	st.bytes += uint64(box.Layout().Size())
	return box, nil
}

func checkTail(tail []uint64, base uint64, n int) error {
	if len(tail) != n {
		return fmt.Errorf("tail has %d elements, want %d", len(tail), n)
	}
	for i, v := range tail {
		if v != base+uint64(i) {
			return fmt.Errorf("tail[%d] = %d, want %d", i, v, base+uint64(i))
		}
	}
	return nil
}
