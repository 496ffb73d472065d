package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/sybil-ranker/pkg/sybilrank"
	"github.com/ritzau/sybil-ranker/pkg/sybilscar"
)

const (
	AlgorithmSybilRank = "sybilrank"
	AlgorithmSybilScar = "sybilscar"

	// DefaultFile is read from the working directory when present
	DefaultFile = "sybil-ranker.toml"
	envPrefix   = "SYBIL_RANKER_"
)

// Config holds all configuration for the application
type Config struct {
	Algorithm string `koanf:"algorithm"`
	Network   string `koanf:"network"`
	Labels    string `koanf:"labels"`
	Out       string `koanf:"out"`

	// Shared by both algorithms, see sybilrank.Options and sybilscar.Options
	MaxIter int `koanf:"max_iter"`

	// SybilRank
	Alpha float64 `koanf:"alpha"`

	// SybilScar
	ThetaPos   float64 `koanf:"theta_pos"`
	ThetaNeg   float64 `koanf:"theta_neg"`
	ThetaUnl   float64 `koanf:"theta_unl"`
	Weight     float64 `koanf:"weight"`
	NumThreads int     `koanf:"num_threads"`
	Seed       uint64  `koanf:"seed"`

	Inspect    bool   `koanf:"inspect"`
	Report     bool   `koanf:"report"`
	Top        int    `koanf:"top"`
	WebMode    bool   `koanf:"web"`
	Port       int    `koanf:"port"`
	Watch      bool   `koanf:"watch"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`
	LogJSON    bool   `koanf:"log_json"`
}

// NewFlagSet declares the command-line flags understood by Load.
// Flag names use dashes; they map to the underscore config keys.
func NewFlagSet(name string) *pflag.FlagSet {
	rank := sybilrank.DefaultOptions()
	scar := sybilscar.DefaultOptions()

	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "", "Path to a TOML config file (default ./"+DefaultFile+" if present)")
	f.StringP("algorithm", "a", AlgorithmSybilRank, "Ranking algorithm: sybilrank or sybilscar")
	f.StringP("network", "n", "", "Graph file, one directed edge \"u v\" per line")
	f.StringP("labels", "l", "", "Label file: positive seeds on line 1, negative seeds on line 2")
	f.StringP("out", "o", "", "Output score file")
	f.Int("max-iter", rank.MaxIter, "Iteration floor (sybilrank) or ceiling (sybilscar)")
	f.Float64("alpha", rank.Alpha, "Restart weight towards the prior (sybilrank)")
	f.Float64("theta-pos", scar.ThetaPos, "Prior of positive seeds (sybilscar)")
	f.Float64("theta-neg", scar.ThetaNeg, "Prior of negative seeds (sybilscar)")
	f.Float64("theta-unl", scar.ThetaUnl, "Prior of unlabeled nodes (sybilscar)")
	f.Float64("weight", scar.Weight, "Edge weight in (0,1) (sybilscar)")
	f.Int("num-threads", scar.NumThreads, "Worker goroutines per iteration (sybilscar)")
	f.Uint64("seed", scar.Seed, "Seed of the visitation shuffle (sybilscar)")
	f.Bool("inspect", false, "Print graph diagnostics before ranking")
	f.Bool("report", false, "Print a score report after ranking")
	f.Int("top", 10, "Number of lowest ranked nodes shown in the report and API")
	f.Bool("web", false, "Serve scores over HTTP after ranking")
	f.Int("port", 8080, "Port for web server (only used with --web)")
	f.Bool("watch", false, "Re-run when the network or label file changes")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("log-json", false, "Write logs as JSON lines instead of the compact format")
	return f
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env (.env included) > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	rank := sybilrank.DefaultOptions()
	scar := sybilscar.DefaultOptions()

	// 1. Defaults
	defaults := map[string]interface{}{
		"algorithm":   AlgorithmSybilRank,
		"network":     "",
		"labels":      "",
		"out":         "",
		"max_iter":    rank.MaxIter,
		"alpha":       rank.Alpha,
		"theta_pos":   scar.ThetaPos,
		"theta_neg":   scar.ThetaNeg,
		"theta_unl":   scar.ThetaUnl,
		"weight":      scar.Weight,
		"num_threads": scar.NumThreads,
		"seed":        scar.Seed,
		"inspect":     false,
		"report":      false,
		"top":         10,
		"web":         false,
		"port":        8080,
		"watch":       false,
		"verbosity":   "",
		"verbose":     0,
		"log_json":    false,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File. The default file is optional, an explicit one is not.
	path, explicit := DefaultFile, false
	if f != nil {
		if p, err := f.GetString("config"); err == nil && p != "" {
			path, explicit = p, true
		}
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// 3. Environment Variables, after merging a local .env file
	// Prefix: SYBIL_RANKER_ (e.g., SYBIL_RANKER_NUM_THREADS=8)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		provider := posflag.ProviderWithFlag(f, ".", k, func(flag *pflag.Flag) (string, interface{}) {
			if flag.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(flag.Name, "-", "_"), posflag.FlagVal(f, flag)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings needed for a ranking run.
func (c *Config) Validate() error {
	switch c.Algorithm {
	case AlgorithmSybilRank:
		if err := c.RankOptions().Validate(); err != nil {
			return err
		}
	case AlgorithmSybilScar:
		if err := c.ScarOptions().Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Algorithm)
	}

	if c.Network == "" {
		return fmt.Errorf("%w: network", ErrMissingPath)
	}
	if c.Labels == "" {
		return fmt.Errorf("%w: labels", ErrMissingPath)
	}
	if c.Out == "" && !c.WebMode {
		return fmt.Errorf("%w: out (required unless --web)", ErrMissingPath)
	}
	if c.WebMode && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}
	return nil
}

// RankOptions returns the SybilRank settings.
func (c *Config) RankOptions() sybilrank.Options {
	return sybilrank.Options{
		Alpha:   c.Alpha,
		MaxIter: c.MaxIter,
	}
}

// ScarOptions returns the SybilScar settings.
func (c *Config) ScarOptions() sybilscar.Options {
	return sybilscar.Options{
		ThetaPos:   c.ThetaPos,
		ThetaNeg:   c.ThetaNeg,
		ThetaUnl:   c.ThetaUnl,
		Weight:     c.Weight,
		MaxIter:    c.MaxIter,
		NumThreads: c.NumThreads,
		Seed:       c.Seed,
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

//--------------------------ERROR-CODES--------------------------

var ErrUnknownAlgorithm = errors.New("unknown algorithm")
var ErrMissingPath = errors.New("missing path")
var ErrInvalidPort = errors.New("invalid port")
