// Package sybilrank ranks nodes by damped power iteration of trust from
// positive seeds, normalized by degree. Low scores are likely Sybils.
package sybilrank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/ritzau/sybil-ranker/pkg/graph"
	"github.com/ritzau/sybil-ranker/pkg/logging"
)

// Options configures a SybilRank run.
type Options struct {
	Alpha   float64 // restart weight towards the prior, in [0, 1)
	MaxIter int     // iteration floor, raised to floor(ln N) on large graphs
}

// DefaultOptions returns pure propagation (no restart) with 10 iterations.
func DefaultOptions() Options {
	return Options{
		Alpha:   0.0,
		MaxIter: 10,
	}
}

// Validate returns the appropriate error if an option is out of range.
func (o Options) Validate() error {
	if !(o.Alpha >= 0 && o.Alpha < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidAlpha, o.Alpha)
	}
	if o.MaxIter < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIter, o.MaxIter)
	}
	return nil
}

// Propagator holds the transition structure for one graph and prior.
type Propagator struct {
	graph *graph.Store
	prior []float64
	opts  Options

	// coef[k] is 1/degree(v) for the k-th arc u -> v in CSR order,
	// 0 when v has no out-arcs.
	coef []float64
}

// New builds the transition structure over g. The prior must have one
// entry per node.
func New(g *graph.Store, prior []float64, opts Options) (*Propagator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(prior) != g.NodeCount() {
		return nil, fmt.Errorf("%w: got %d, graph has %d nodes", ErrPriorLength, len(prior), g.NodeCount())
	}

	coef := make([]float64, 0, g.EdgeCount())
	for u := 0; u < g.NodeCount(); u++ {
		for _, v := range g.Neighbors(u) {
			c := 0.0
			if d := g.Degree(v); d > 0 {
				c = 1.0 / float64(d)
			}
			coef = append(coef, c)
		}
	}

	return &Propagator{
		graph: g,
		prior: prior,
		opts:  opts,
		coef:  coef,
	}, nil
}

// Iterations returns how many power-iteration steps Run performs: MaxIter,
// raised to floor(ln N) when ln N exceeds it.
func (p *Propagator) Iterations() int {
	n := p.graph.NodeCount()
	if n == 0 {
		return p.opts.MaxIter
	}
	if logN := math.Log(float64(n)); logN > float64(p.opts.MaxIter) {
		return int(logN)
	}
	return p.opts.MaxIter
}

// Step writes one transition of src into dst:
// dst[u] = sum over arcs u -> v of src[v] / degree(v).
func (p *Propagator) Step(dst, src []float64) {
	k := 0
	for u := range dst {
		sum := 0.0
		for _, v := range p.graph.Neighbors(u) {
			sum += src[v] * p.coef[k]
			k++
		}
		dst[u] = sum
	}
}

// Propagate runs the damped power iteration from the prior and returns the
// posterior before degree normalization. The context is only checked
// between iterations.
func (p *Propagator) Propagate(ctx context.Context) ([]float64, error) {
	log := logging.New("sybilrank")

	posterior := make([]float64, len(p.prior))
	copy(posterior, p.prior)
	next := make([]float64, len(p.prior))

	iterations := p.Iterations()
	log.DebugContext(ctx, "starting power iteration",
		"nodes", p.graph.NodeCount(),
		"arcs", p.graph.EdgeCount(),
		"iterations", iterations,
		"alpha", p.opts.Alpha,
	)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sybilrank stopped after %d of %d iterations: %w", i, iterations, err)
		}

		p.Step(next, posterior)

		// posterior = (1 - alpha) * next + alpha * prior
		delta := floats.Distance(next, posterior, 1)
		floats.ScaleTo(posterior, 1-p.opts.Alpha, next)
		floats.AddScaled(posterior, p.opts.Alpha, p.prior)

		log.Log(ctx, logging.LevelTrace, "iteration done", "iteration", i+1, "l1Change", delta)
	}

	log.DebugContext(ctx, "power iteration complete", "durationMs", time.Since(start).Milliseconds())
	return posterior, nil
}

// Normalize divides every entry by its node's degree in place. Degree-0
// nodes are set to 0.
func (p *Propagator) Normalize(posterior []float64) {
	for i := range posterior {
		if d := p.graph.Degree(i); d > 0 {
			posterior[i] /= float64(d)
		} else {
			posterior[i] = 0
		}
	}
}

// Run computes the final SybilRank scores: Propagate followed by Normalize.
func (p *Propagator) Run(ctx context.Context) ([]float64, error) {
	posterior, err := p.Propagate(ctx)
	if err != nil {
		return nil, err
	}
	p.Normalize(posterior)
	return posterior, nil
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidAlpha = errors.New("alpha should be a number in [0, 1)")
var ErrInvalidMaxIter = errors.New("max_iter should not be negative")
var ErrPriorLength = errors.New("prior length does not match the node count")
