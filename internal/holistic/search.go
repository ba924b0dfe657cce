// Package holistic finds the similarity transform that best aligns two
// contour patterns, scoring candidates by intersection-over-union.
package holistic

import (
	"fmt"
	"runtime"
	"sync"

	"drone-locator/internal/pattern"

	"gonum.org/v1/gonum/floats"
)

// Params configures the transform grid search.
type Params struct {
	// Scale ladder: ScaleSteps samples spaced evenly in [MinScale, MaxScale].
	MinScale   float64
	MaxScale   float64
	ScaleSteps int

	// Rotation samples at AngleStep degree increments over [0, 360).
	AngleStep float64

	// Translation lattice over [-TranslationRange, +TranslationRange]^2
	// with TranslationStep spacing.
	TranslationRange int
	TranslationStep  int

	// Simplify restricts the search to pure translation (scale 1, angle 0).
	// Roughly an order of magnitude faster; accurate when the query is
	// already aligned and scaled.
	Simplify bool

	// Workers caps the number of parallel (scale, angle) evaluations.
	// Zero means one per CPU.
	Workers int

	// ShouldAbort, when non-nil, is polled between (scale, angle)
	// iterations; returning true stops the search with the best result
	// found so far.
	ShouldAbort func() bool
}

// DefaultParams returns the full-search defaults.
func DefaultParams() Params {
	return Params{
		MinScale:         0.5,
		MaxScale:         2.0,
		ScaleSteps:       10,
		AngleStep:        10,
		TranslationRange: 50,
		TranslationStep:  10,
	}
}

// SimplifiedParams returns translation-only search parameters.
func SimplifiedParams() Params {
	p := DefaultParams()
	p.Simplify = true
	return p
}

// Validate checks the parameters for out-of-range values.
func (p Params) Validate() error {
	if p.ScaleSteps < 1 {
		return fmt.Errorf("scale_steps %d < 1", p.ScaleSteps)
	}
	if p.MinScale <= 0 || p.MaxScale < p.MinScale {
		return fmt.Errorf("invalid scale range [%g, %g]", p.MinScale, p.MaxScale)
	}
	if p.AngleStep <= 0 {
		return fmt.Errorf("angle_step %g <= 0", p.AngleStep)
	}
	if p.TranslationStep < 1 {
		return fmt.Errorf("translation_step %d < 1", p.TranslationStep)
	}
	if p.TranslationRange < 0 {
		return fmt.Errorf("translation_range %d < 0", p.TranslationRange)
	}
	return nil
}

// Result is the outcome of a transform search.
type Result struct {
	Transform   Transform
	IoU         float64
	Comparisons int
}

// Score returns the result's IoU on the caller-facing 0-100 scale.
func (r Result) Score() float64 {
	return 100 * r.IoU
}

// scales returns the scale ladder to search.
func (p Params) scales() []float64 {
	if p.Simplify {
		return []float64{1.0}
	}
	if p.ScaleSteps == 1 {
		return []float64{p.MinScale}
	}
	return floats.Span(make([]float64, p.ScaleSteps), p.MinScale, p.MaxScale)
}

// angles returns the rotation samples to search, in degrees.
func (p Params) angles() []float64 {
	if p.Simplify {
		return []float64{0}
	}
	var out []float64
	for a := 0.0; a < 360; a += p.AngleStep {
		out = append(out, a)
	}
	return out
}

// task is one (scale, angle) cell of the outer search grid.
type task struct {
	scale, angle float64
}

// taskResult is the best translation found within one grid cell.
type taskResult struct {
	best        Result
	comparisons int
	done        bool
}

// Search enumerates the (scale, rotation, translation) grid and returns
// the transform of the query pattern that maximizes IoU against the
// reference pattern. Rotation and scaling are hoisted out of the
// translation loop: each (scale, angle) cell resamples the query once,
// then scores every translation of that bitmap. Cells are evaluated in
// parallel, but results are merged in grid order with deterministic
// tie-breaking, so the outcome is bit-identical to a serial scan.
func Search(query, ref *pattern.Pattern, params Params) (Result, error) {
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	if query.Size != ref.Size {
		return Result{}, fmt.Errorf("pattern size mismatch: %d vs %d", query.Size, ref.Size)
	}

	identity := Result{Transform: Transform{Scale: 1}}
	if query.Count() == 0 || ref.Count() == 0 {
		return identity, nil
	}

	tasks := buildTasks(params)
	results := make([]taskResult, len(tasks))

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var next int
	var mu sync.Mutex
	takeTask := func() int {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(tasks) {
			return -1
		}
		if params.ShouldAbort != nil && params.ShouldAbort() {
			next = len(tasks)
			return -1
		}
		i := next
		next++
		return i
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := pattern.New(query.Size)
			for {
				i := takeTask()
				if i < 0 {
					return
				}
				results[i] = evalCell(query, ref, tasks[i], scratch, params)
			}
		}()
	}
	wg.Wait()

	// Deterministic reduce in grid order.
	best := identity
	found := false
	comparisons := 0
	for _, tr := range results {
		if !tr.done {
			continue
		}
		comparisons += tr.comparisons
		if !found || better(tr.best, best) {
			best = tr.best
			found = true
		}
	}
	best.Comparisons = comparisons
	return best, nil
}

// buildTasks expands the outer (scale, angle) grid.
func buildTasks(params Params) []task {
	scales := params.scales()
	angles := params.angles()
	tasks := make([]task, 0, len(scales)*len(angles))
	for _, s := range scales {
		for _, a := range angles {
			tasks = append(tasks, task{scale: s, angle: a})
		}
	}
	return tasks
}

// evalCell resamples the query for one (scale, angle) cell and scans the
// translation lattice.
func evalCell(query, ref *pattern.Pattern, t task, scratch *pattern.Pattern, params Params) taskResult {
	resample(scratch, query, t.scale, t.angle)

	tr := taskResult{done: true}
	first := true
	for ty := -params.TranslationRange; ty <= params.TranslationRange; ty += params.TranslationStep {
		for tx := -params.TranslationRange; tx <= params.TranslationRange; tx += params.TranslationStep {
			iou := pattern.ShiftedIoU(scratch, ref, tx, ty)
			tr.comparisons++
			cand := Result{
				Transform: Transform{Scale: t.scale, AngleDeg: t.angle, TX: tx, TY: ty},
				IoU:       iou,
			}
			if first || better(cand, tr.best) {
				tr.best = cand
				first = false
			}
		}
	}
	return tr
}

// better reports whether a beats b: higher IoU first, then the
// reproducible tie order of smaller |scale-1|, smaller angular distance
// from zero, smaller |tx|, smaller |ty|.
func better(a, b Result) bool {
	if a.IoU != b.IoU {
		return a.IoU > b.IoU
	}
	ad, bd := absFloat(a.Transform.Scale-1), absFloat(b.Transform.Scale-1)
	if ad != bd {
		return ad < bd
	}
	aa, ba := angularDistance(a.Transform.AngleDeg), angularDistance(b.Transform.AngleDeg)
	if aa != ba {
		return aa < ba
	}
	if absInt(a.Transform.TX) != absInt(b.Transform.TX) {
		return absInt(a.Transform.TX) < absInt(b.Transform.TX)
	}
	return absInt(a.Transform.TY) < absInt(b.Transform.TY)
}

// angularDistance measures how far an angle in [0, 360) is from zero.
func angularDistance(deg float64) float64 {
	if deg > 180 {
		return 360 - deg
	}
	return deg
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
