package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func load(t *testing.T, args ...string) *Config {
	t.Helper()
	f := NewFlagSet("test")
	if err := f.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := load(t)

	if cfg.Algorithm != AlgorithmSybilRank {
		t.Errorf("Expected default algorithm %q, got %q", AlgorithmSybilRank, cfg.Algorithm)
	}
	if cfg.MaxIter != 10 {
		t.Errorf("Expected max_iter 10, got %d", cfg.MaxIter)
	}
	if cfg.Alpha != 0 {
		t.Errorf("Expected alpha 0, got %v", cfg.Alpha)
	}
	if cfg.ThetaPos != 0.6 || cfg.ThetaNeg != 0.4 || cfg.ThetaUnl != 0.5 {
		t.Errorf("Unexpected theta defaults: %v %v %v", cfg.ThetaPos, cfg.ThetaNeg, cfg.ThetaUnl)
	}
	if cfg.Weight != 0.6 {
		t.Errorf("Expected weight 0.6, got %v", cfg.Weight)
	}
	if cfg.NumThreads != 1 {
		t.Errorf("Expected 1 thread, got %d", cfg.NumThreads)
	}
	if cfg.Seed != 152 {
		t.Errorf("Expected seed 152, got %d", cfg.Seed)
	}
	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.LogJSON {
		t.Error("Expected compact logs by default")
	}
}

func TestLoadFlags(t *testing.T) {
	cfg := load(t,
		"--algorithm", "sybilscar",
		"--network", "graph.txt",
		"-l", "labels.txt",
		"--out", "scores.txt",
		"--max-iter", "3",
		"--theta-pos", "0.7",
		"--num-threads", "8",
		"--seed", "42",
		"-vv",
		"--log-json",
	)

	if cfg.Algorithm != AlgorithmSybilScar {
		t.Errorf("Expected sybilscar, got %q", cfg.Algorithm)
	}
	if cfg.Network != "graph.txt" || cfg.Labels != "labels.txt" || cfg.Out != "scores.txt" {
		t.Errorf("Unexpected paths: %q %q %q", cfg.Network, cfg.Labels, cfg.Out)
	}
	if cfg.MaxIter != 3 {
		t.Errorf("Expected max_iter 3, got %d", cfg.MaxIter)
	}
	if cfg.ThetaPos != 0.7 {
		t.Errorf("Expected theta_pos 0.7, got %v", cfg.ThetaPos)
	}
	if cfg.NumThreads != 8 || cfg.Seed != 42 {
		t.Errorf("Expected 8 threads and seed 42, got %d and %d", cfg.NumThreads, cfg.Seed)
	}
	if cfg.VerboseCnt != 2 {
		t.Errorf("Expected verbose count 2, got %d", cfg.VerboseCnt)
	}
	if !cfg.LogJSON {
		t.Error("Expected --log-json to select JSON logs")
	}

	opts := cfg.ScarOptions()
	if opts.MaxIter != 3 || opts.NumThreads != 8 || opts.ThetaPos != 0.7 {
		t.Errorf("ScarOptions() did not carry flag values: %+v", opts)
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranker.toml")
	content := "algorithm = \"sybilscar\"\nmax_iter = 4\nweight = 0.8\nnum_threads = 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("SYBIL_RANKER_MAX_ITER", "6")
	t.Setenv("SYBIL_RANKER_NUM_THREADS", "3")

	cfg := load(t, "--config", path, "--num-threads", "5")

	// file
	if cfg.Algorithm != AlgorithmSybilScar || cfg.Weight != 0.8 {
		t.Errorf("Expected values from the config file, got %q %v", cfg.Algorithm, cfg.Weight)
	}
	// env over file
	if cfg.MaxIter != 6 {
		t.Errorf("Expected env max_iter 6, got %d", cfg.MaxIter)
	}
	// flags over env
	if cfg.NumThreads != 5 {
		t.Errorf("Expected flag num_threads 5, got %d", cfg.NumThreads)
	}
}

func TestLoadMissingExplicitConfig(t *testing.T) {
	f := NewFlagSet("test")
	if err := f.Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.toml")}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if _, err := Load(f); err == nil {
		t.Error("Expected an error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return load(t, "--network", "g.txt", "--labels", "l.txt", "--out", "s.txt")
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"unknown algorithm", func(c *Config) { c.Algorithm = "pagerank" }, ErrUnknownAlgorithm},
		{"missing network", func(c *Config) { c.Network = "" }, ErrMissingPath},
		{"missing labels", func(c *Config) { c.Labels = "" }, ErrMissingPath},
		{"missing out", func(c *Config) { c.Out = "" }, ErrMissingPath},
		{"bad port", func(c *Config) { c.WebMode = true; c.Port = 0 }, ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}

	// web mode does not need an output file
	cfg := valid()
	cfg.Out = ""
	cfg.WebMode = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() in web mode error = %v", err)
	}

	// algorithm options are checked for the selected algorithm only
	cfg = valid()
	cfg.Weight = 2
	if err := cfg.Validate(); err != nil {
		t.Errorf("sybilrank should ignore the sybilscar weight, got %v", err)
	}
	cfg.Algorithm = AlgorithmSybilScar
	if err := cfg.Validate(); err == nil {
		t.Error("Expected an error for weight 2 with sybilscar")
	}
}
