// Package config loads the planner's recognised configuration options
// (SPEC_FULL.md 6.4 / spec.md 6) from YAML with ${ENV_VAR} interpolation,
// grounded on the teacher's Config/LoadConfig/SaveConfig/ExampleConfig
// shape (internal/config/config.go), repointed from LLM-provider settings
// to the deadend/weaksearch/epoch/output options the driver consumes.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object, one section per concern.
type Config struct {
	Deadend   DeadendConfig   `yaml:"deadend"`
	Localize  LocalizeConfig  `yaml:"localize"`
	Weaksearch WeaksearchConfig `yaml:"weaksearch"`
	Epoch     EpochConfig     `yaml:"epoch"`
	General   GeneralConfig   `yaml:"general"`
	Fondsearch FondsearchConfig `yaml:"fondsearch"`
	PSGraph   PSGraphConfig   `yaml:"psgraph"`
	Output    OutputConfig    `yaml:"output"`
}

// DeadendConfig mirrors spec.md 6's deadend.* options.
type DeadendConfig struct {
	Enabled      bool `yaml:"enabled"`
	Generalize   bool `yaml:"generalize"`
	PoisonSearch bool `yaml:"poison_search"`
	Combine      bool `yaml:"combine"`
	RecordOnline bool `yaml:"record_online"`
}

// LocalizeConfig mirrors localize.enabled: whether weak plans target the
// current sub-goal or the original goal.
type LocalizeConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WeaksearchConfig mirrors weaksearch.* options.
type WeaksearchConfig struct {
	PenalizePotentialFSAPs bool `yaml:"penalize_potential_fsaps"`
	FSAPPenalty            int  `yaml:"fsap_penalty"`
}

// EpochConfig mirrors epoch.max and the per-epoch time budget.
type EpochConfig struct {
	Max       int    `yaml:"max"`
	TimeLimit string `yaml:"time_limit"` // parsed with time.ParseDuration
}

// GeneralConfig mirrors general.final_fsap_free_round.
type GeneralConfig struct {
	FinalFSAPFreeRound bool `yaml:"final_fsap_free_round"`
}

// FondsearchConfig mirrors fondsearch.node_preference.
type FondsearchConfig struct {
	NodePreference string `yaml:"node_preference"` // lifo | fifo | near-init | away-init | random
}

// PSGraphConfig mirrors psgraph.full_scd_marking.
type PSGraphConfig struct {
	FullSCDMarking bool `yaml:"full_scd_marking"`
}

// OutputConfig mirrors output.format and the CLI's snapshot settings.
type OutputConfig struct {
	Format      string `yaml:"format"` // list | match-tree | controller
	SnapshotDir string `yaml:"snapshot_dir"`
}

// DefaultConfig returns the defaults spec.md describes: FSAP learning
// enabled, combination enabled, poisoning enabled, final_fsap_free_round
// enabled, FIFO node preference.
func DefaultConfig() *Config {
	return &Config{
		Deadend: DeadendConfig{
			Enabled:      true,
			Generalize:   true,
			PoisonSearch: true,
			Combine:      true,
			RecordOnline: true,
		},
		Localize: LocalizeConfig{Enabled: true},
		Weaksearch: WeaksearchConfig{
			PenalizePotentialFSAPs: false,
			FSAPPenalty:            1000,
		},
		Epoch: EpochConfig{
			Max:       1,
			TimeLimit: "30s",
		},
		General: GeneralConfig{FinalFSAPFreeRound: true},
		Fondsearch: FondsearchConfig{
			NodePreference: "fifo",
		},
		PSGraph: PSGraphConfig{FullSCDMarking: true},
		Output: OutputConfig{
			Format: "list",
		},
	}
}

// LoadConfig loads configuration from a YAML file, falling back to
// defaults if path is empty or the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes cfg to path as YAML, creating parent directories.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("config: create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}

// ExampleConfig returns a commented example configuration, for `prpctl
// config init`.
func ExampleConfig() string {
	return `# prpctl configuration file
# Priority: CLI flags > config file > defaults
# ${ENV_VAR} references in this file are expanded when it is loaded.

deadend:
  # Check each popped state for a relaxed dead-end with the reachability
  # heuristic (driver case 1). Learning FSAPs from failures and filtering
  # actions through them happen whatever this is set to.
  enabled: true
  # Parsed but not consulted by prpctl solve: learned dead-ends are
  # stored as found, without unsetting unnecessary variables.
  generalize: true
  # Propagate poisoning forward through search nodes on case 1.
  poison_search: true
  # Synthesise a combined dead-end when every applicable action at a
  # state is individually forbidden.
  combine: true
  # Parsed but not consulted by prpctl solve: heuristic dead-ends found in
  # case 1 are recorded for learning whenever deadend.enabled is true.
  record_online: true

localize:
  # Parsed but not consulted by prpctl solve: the weak planner is always
  # targeted at the search node's expected sub-goal.
  enabled: true

weaksearch:
  # Charge the reachability heuristic a penalty for actions with a
  # potential (query-entailed) FSAP, to steer the weak planner away
  # from them before they're confirmed forbidden.
  penalize_potential_fsaps: false
  fsap_penalty: 1000

epoch:
  # Number of time-budget epochs before giving up.
  max: 1
  # Per-epoch wall-clock budget, e.g. "30s", "2m".
  time_limit: 30s

general:
  # After the last epoch, run one extra best-effort round with half of
  # one epoch's time limit, with the heuristic dead-end check and forward
  # poisoning off. Learned FSAPs and dead-ends are still consulted in it.
  final_fsap_free_round: true

fondsearch:
  # Open-list ordering: fifo | lifo | near-init | away-init | random.
  node_preference: fifo

psgraph:
  # Run a full strong-cyclic re-marking after every structural edit
  # rather than only the incrementally-affected steps.
  full_scd_marking: true

output:
  # list | match-tree | controller
  format: list
  snapshot_dir: ""
`
}
