// Package sybilscar ranks nodes with a signed, centered form of loopy
// belief propagation. Each iteration reads a frozen snapshot of the
// previous posterior, so the per-iteration update is Jacobi style and
// the worker partitioning never changes the result.
package sybilscar

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ritzau/sybil-ranker/pkg/graph"
	"github.com/ritzau/sybil-ranker/pkg/logging"
)

// Bound is the absolute limit of a centered posterior value.
const Bound = 0.5

// Options configures a SybilScar run.
type Options struct {
	ThetaPos   float64 // prior probability of a positive seed being benign
	ThetaNeg   float64 // prior probability of a negative seed being benign
	ThetaUnl   float64 // prior probability of an unlabeled node being benign
	Weight     float64 // homophily strength of every edge, in (0, 1)
	MaxIter    int     // iteration ceiling, lowered to floor(ln N) on small graphs
	NumThreads int     // worker goroutines per iteration
	Seed       uint64  // seed of the visitation shuffle
}

// DefaultOptions returns the standard calibration with a fixed shuffle seed.
func DefaultOptions() Options {
	return Options{
		ThetaPos:   0.6,
		ThetaNeg:   0.4,
		ThetaUnl:   0.5,
		Weight:     0.6,
		MaxIter:    10,
		NumThreads: 1,
		Seed:       152,
	}
}

// Validate returns the appropriate error if an option is out of range.
func (o Options) Validate() error {
	thetas := []struct {
		name  string
		value float64
	}{
		{"theta_pos", o.ThetaPos},
		{"theta_neg", o.ThetaNeg},
		{"theta_unl", o.ThetaUnl},
	}
	for _, theta := range thetas {
		if !(theta.value >= 0 && theta.value <= 1) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidTheta, theta.name, theta.value)
		}
	}
	if !(o.Weight > 0 && o.Weight < 1) {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, o.Weight)
	}
	if o.MaxIter < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxIter, o.MaxIter)
	}
	if o.NumThreads < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidNumThreads, o.NumThreads)
	}
	return nil
}

// NewRand returns the shuffle source for a seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Propagator runs belief propagation over a weighted store.
type Propagator struct {
	graph *graph.Store
	prior []float64
	opts  Options
	rng   *rand.Rand
	order []int // visitation permutation, reshuffled every iteration
}

// New prepares a run. g must come from graph.BuildWeighted with
// opts.Weight and prior must hold the centered seed values. A nil rng is
// replaced by NewRand(opts.Seed).
func New(g *graph.Store, prior []float64, opts Options, rng *rand.Rand) (*Propagator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !g.Weighted() {
		return nil, ErrUnweightedGraph
	}
	if g.Weight() != opts.Weight {
		return nil, fmt.Errorf("%w: graph built with %v, options say %v", ErrWeightMismatch, g.Weight(), opts.Weight)
	}
	if len(prior) != g.NodeCount() {
		return nil, fmt.Errorf("%w: got %d, graph has %d nodes", ErrPriorLength, len(prior), g.NodeCount())
	}
	if rng == nil {
		rng = NewRand(opts.Seed)
	}

	order := make([]int, g.NodeCount())
	for i := range order {
		order[i] = i
	}

	return &Propagator{
		graph: g,
		prior: prior,
		opts:  opts,
		rng:   rng,
		order: order,
	}, nil
}

// Iterations returns how many rounds Run performs: MaxIter, lowered to
// floor(ln N) when ln N is smaller.
func (p *Propagator) Iterations() int {
	n := p.graph.NodeCount()
	if n == 0 {
		return 0
	}
	if logN := math.Log(float64(n)); logN < float64(p.opts.MaxIter) {
		return int(logN)
	}
	return p.opts.MaxIter
}

// Run propagates beliefs and returns the centered posterior, every value
// within [-Bound, Bound]. The context is only checked between iterations,
// never while workers hold a partially written posterior.
func (p *Propagator) Run(ctx context.Context) ([]float64, error) {
	log := logging.New("sybilscar")

	n := p.graph.NodeCount()
	posterior := make([]float64, n)
	copy(posterior, p.prior)
	prev := make([]float64, n)

	iterations := p.Iterations()
	workers := p.opts.NumThreads
	chunk := (n + workers - 1) / workers

	log.DebugContext(ctx, "starting belief propagation",
		"nodes", n,
		"arcs", p.graph.EdgeCount(),
		"iterations", iterations,
		"workers", workers,
		"chunk", chunk,
	)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sybilscar stopped after %d of %d iterations: %w", i, iterations, err)
		}

		copy(prev, posterior)
		p.rng.Shuffle(len(p.order), func(a, b int) {
			p.order[a], p.order[b] = p.order[b], p.order[a]
		})

		// Chunks of the permutation are disjoint, so no two workers
		// write the same posterior entry.
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			lo := w * chunk
			hi := min(lo+chunk, n)
			if lo >= hi {
				break
			}

			wg.Add(1)
			go func(nodes []int) {
				defer wg.Done()
				p.update(posterior, prev, nodes)
			}(p.order[lo:hi])
		}
		wg.Wait()

		log.Log(ctx, logging.LevelTrace, "iteration done", "iteration", i+1)
	}

	log.DebugContext(ctx, "belief propagation complete", "durationMs", time.Since(start).Milliseconds())
	return posterior, nil
}

// update recomputes the given nodes from the frozen snapshot prev.
func (p *Propagator) update(posterior, prev []float64, nodes []int) {
	for _, node := range nodes {
		neighbors, weights := p.graph.WeightedNeighbors(node)

		belief := 0.0
		for k, m := range neighbors {
			belief += 2 * prev[m] * weights[k]
		}
		belief += p.prior[node]

		posterior[node] = min(Bound, max(-Bound, belief))
	}
}

// Scores shifts a centered posterior back into [0, 1].
func Scores(posterior []float64) []float64 {
	scores := make([]float64, len(posterior))
	for i, v := range posterior {
		scores[i] = v + Bound
	}
	return scores
}

//--------------------------ERROR-CODES--------------------------

var ErrInvalidTheta = errors.New("theta should be a number in [0, 1]")
var ErrInvalidWeight = errors.New("weight should be a number in (0, 1)")
var ErrInvalidMaxIter = errors.New("max_iter should not be negative")
var ErrInvalidNumThreads = errors.New("num_threads should be at least 1")
var ErrUnweightedGraph = errors.New("sybilscar needs a graph built with edge weights")
var ErrPriorLength = errors.New("prior length does not match the node count")
var ErrWeightMismatch = errors.New("graph edge weight differs from the configured weight")
