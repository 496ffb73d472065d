// Package pipeline runs one ranking pass: read the graph and labels, build
// the store, propagate with the configured algorithm and persist scores.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ritzau/sybil-ranker/pkg/config"
	"github.com/ritzau/sybil-ranker/pkg/graph"
	"github.com/ritzau/sybil-ranker/pkg/input"
	"github.com/ritzau/sybil-ranker/pkg/inspect"
	"github.com/ritzau/sybil-ranker/pkg/logging"
	"github.com/ritzau/sybil-ranker/pkg/prior"
	"github.com/ritzau/sybil-ranker/pkg/scores"
	"github.com/ritzau/sybil-ranker/pkg/sybilrank"
	"github.com/ritzau/sybil-ranker/pkg/sybilscar"
)

// totalSteps is the number of phases reported through Sink.
const totalSteps = 5

// Result describes a completed run.
type Result struct {
	RunID      string          `json:"run_id"`
	Reason     string          `json:"reason"`
	Algorithm  string          `json:"algorithm"`
	Nodes      int             `json:"nodes"`
	Arcs       int             `json:"arcs"`
	Positive   int             `json:"positive_seeds"`
	Negative   int             `json:"negative_seeds"`
	Iterations int             `json:"iterations"`
	Scores     []float64       `json:"-"`
	Summary    scores.Summary  `json:"summary"`
	Inspection *inspect.Report `json:"inspection,omitempty"`
	Out        string          `json:"out,omitempty"`
	// MaxChange compares with the scores the previous run left in Out.
	// It is nil when there was no comparable previous file.
	MaxChange  *float64        `json:"max_change,omitempty"`
	Started    time.Time       `json:"started"`
	Duration   time.Duration   `json:"duration"`
}

// Sink receives progress and results, e.g. the web server. It may be nil.
type Sink interface {
	PublishRunStatus(state, message string, step, total int) error
	SetResult(result *Result)
}

// Runner orchestrates ranking runs
type Runner struct {
	cfg  *config.Config
	sink Sink
	mu   sync.Mutex // Prevent concurrent runs
}

// NewRunner creates a runner for the given configuration
func NewRunner(cfg *config.Config, sink Sink) *Runner {
	return &Runner{
		cfg:  cfg,
		sink: sink,
	}
}

func (r *Runner) publish(ctx context.Context, state, message string, step int) {
	if r.sink == nil {
		return
	}
	if err := r.sink.PublishRunStatus(state, message, step, totalSteps); err != nil {
		logging.WarnContext(ctx, "failed to publish run status", "state", state, "error", err)
	}
}

// Run executes one ranking pass. reason is logged and reported, e.g.
// "initial run" or "network changed".
func (r *Runner) Run(ctx context.Context, reason string) (*Result, error) {
	// Lock to prevent concurrent runs
	r.mu.Lock()
	defer r.mu.Unlock()

	result := &Result{
		RunID:     uuid.New().String(),
		Reason:    reason,
		Algorithm: r.cfg.Algorithm,
		Out:       r.cfg.Out,
		Started:   time.Now(),
	}
	ctx = logging.WithRunID(ctx, result.RunID)
	logging.InfoContext(ctx, "starting run", "reason", reason, "algorithm", r.cfg.Algorithm)

	fail := func(step int, err error) (*Result, error) {
		logging.ErrorContext(ctx, "run failed", "step", step, "error", err)
		r.publish(ctx, "error", err.Error(), step)
		return nil, err
	}

	// Phase 1: Inputs
	r.publish(ctx, "loading", "Reading network and labels...", 1)
	edges, err := input.ParseNetwork(r.cfg.Network)
	if err != nil {
		return fail(1, fmt.Errorf("reading network: %w", err))
	}
	// Negative seeds only feed the sybilscar prior
	labels, err := input.ParseLabels(r.cfg.Labels, r.cfg.Algorithm == config.AlgorithmSybilScar)
	if err != nil {
		return fail(1, fmt.Errorf("reading labels: %w", err))
	}
	result.Positive = labels.Positive.Cardinality()
	result.Negative = labels.Negative.Cardinality()
	logging.InfoContext(ctx, "inputs loaded", "arcs", len(edges), "positive", result.Positive, "negative", result.Negative)
	if overlap := labels.Overlap(); len(overlap) > 0 {
		logging.WarnContext(ctx, "nodes labeled both positive and negative, treating as negative", "count", len(overlap))
	}

	// Phase 2: Graph
	r.publish(ctx, "building", "Building adjacency...", 2)
	g, err := BuildStore(r.cfg, edges)
	if err != nil {
		return fail(2, fmt.Errorf("building graph: %w", err))
	}
	result.Nodes, result.Arcs = g.NodeCount(), g.EdgeCount()
	logging.InfoContext(ctx, "graph built", "nodes", result.Nodes, "arcs", result.Arcs)

	// Phase 3: Diagnostics
	if r.cfg.Inspect {
		r.publish(ctx, "inspecting", "Inspecting graph...", 3)
		report := inspect.Inspect(g, labels)
		result.Inspection = &report
		for _, w := range report.Warnings() {
			logging.WarnContext(ctx, w)
		}
	} else if zero := g.ZeroDegreeNodes(); len(zero) > 0 {
		logging.WarnContext(ctx, "graph has nodes without out-arcs", "count", len(zero))
	}

	// Phase 4: Propagation
	r.publish(ctx, "propagating", fmt.Sprintf("Running %s...", r.cfg.Algorithm), 4)
	ranked, iterations, err := Rank(ctx, r.cfg, g, labels)
	if err != nil {
		return fail(4, err)
	}
	result.Scores = ranked
	result.Iterations = iterations
	result.Summary = scores.Summarize(ranked)

	// Phase 5: Output
	if r.cfg.Out != "" {
		r.publish(ctx, "writing", "Writing scores...", 5)
		r.compareWithPrevious(ctx, result)
		if err := scores.Write(r.cfg.Out, ranked); err != nil {
			return fail(5, fmt.Errorf("writing scores: %w", err))
		}
		logging.InfoContext(ctx, "scores written", "path", r.cfg.Out, "nodes", len(ranked))
	}

	result.Duration = time.Since(result.Started)
	if r.sink != nil {
		r.sink.SetResult(result)
	}
	r.publish(ctx, "ready", "Run complete", totalSteps)
	logging.InfoContext(ctx, "run complete", "iterations", iterations, "durationMs", result.Duration.Milliseconds())
	return result, nil
}

// compareWithPrevious reads the score file about to be replaced and records
// how far the new scores moved. A missing or unreadable file is skipped.
func (r *Runner) compareWithPrevious(ctx context.Context, result *Result) {
	prev, err := scores.Read(r.cfg.Out)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.DebugContext(ctx, "previous scores not comparable", "path", r.cfg.Out, "error", err)
		}
		return
	}
	change, ok := scores.MaxChange(prev, result.Scores)
	if !ok {
		logging.InfoContext(ctx, "node count changed since previous run", "previous", len(prev), "nodes", len(result.Scores))
		return
	}
	result.MaxChange = &change
	logging.InfoContext(ctx, "compared with previous scores", "maxChange", change)
}

// BuildStore builds the adjacency representation the configured algorithm
// needs: plain arcs for sybilrank, centered weights for sybilscar.
func BuildStore(cfg *config.Config, edges []graph.Edge) (*graph.Store, error) {
	if cfg.Algorithm == config.AlgorithmSybilScar {
		return graph.BuildWeighted(edges, cfg.Weight)
	}
	return graph.Build(edges)
}

// Rank computes final scores for g and returns them with the number of
// iterations performed.
func Rank(ctx context.Context, cfg *config.Config, g *graph.Store, labels *input.Labels) ([]float64, int, error) {
	switch cfg.Algorithm {
	case config.AlgorithmSybilRank:
		p0, err := prior.ForRank(labels, g.NodeCount())
		if err != nil {
			return nil, 0, err
		}
		p, err := sybilrank.New(g, p0, cfg.RankOptions())
		if err != nil {
			return nil, 0, err
		}
		ranked, err := p.Run(ctx)
		return ranked, p.Iterations(), err

	case config.AlgorithmSybilScar:
		opts := cfg.ScarOptions()
		p0, err := prior.ForScar(labels, g.NodeCount(), prior.Thetas{
			Pos: opts.ThetaPos,
			Neg: opts.ThetaNeg,
			Unl: opts.ThetaUnl,
		})
		if err != nil {
			return nil, 0, err
		}
		p, err := sybilscar.New(g, p0, opts, sybilscar.NewRand(opts.Seed))
		if err != nil {
			return nil, 0, err
		}
		posterior, err := p.Run(ctx)
		if err != nil {
			return nil, 0, err
		}
		return sybilscar.Scores(posterior), p.Iterations(), nil
	}

	return nil, 0, fmt.Errorf("%w: %q", config.ErrUnknownAlgorithm, cfg.Algorithm)
}
