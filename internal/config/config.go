// Package config loads ralph's layered configuration: defaults, then
// ~/.ralph/config.yaml, then <workspace>/.ralph/config.yaml, then an
// optional --config file, each overriding the last. A .env file in the
// workspace is loaded into the process environment (variables already set
// are kept); Config fields are not read from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/ralphcore/ralph/internal/types"
)

// Config is ralph's full runtime configuration, one section per component.
type Config struct {
	Executor   ExecutorConfig             `mapstructure:"executor"`
	Resolver   ResolverConfig             `mapstructure:"resolver"`
	Validator  ValidatorConfig            `mapstructure:"validator"`
	Context    types.ContextManagerConfig `mapstructure:"context"`
	Verifier   types.VerifierConfig       `mapstructure:"verifier"`
	Supervisor SupervisorConfig           `mapstructure:"supervisor"`
	Executable ExecutableConfig           `mapstructure:"executable"`
}

// ExecutorConfig mirrors executor.Config's fields for YAML/env binding.
type ExecutorConfig struct {
	MaxConcurrency     int `mapstructure:"max_concurrency"`
	ProgressIntervalMs int `mapstructure:"progress_interval_ms"`
}

// ResolverConfig mirrors resolver.Config's fields for YAML/env binding.
type ResolverConfig struct {
	FailureMode           string `mapstructure:"failure_mode"`
	PerSubtaskRetryBudget int    `mapstructure:"per_subtask_retry_budget"`
}

// ValidatorConfig mirrors validator.Config's fields for YAML/env binding.
type ValidatorConfig struct {
	MaxSubtasks           int     `mapstructure:"max_subtasks"`
	MaxDependencyDepth    int     `mapstructure:"max_dependency_depth"`
	MinCompletenessScore  float64 `mapstructure:"min_completeness_score"`
}

// SupervisorConfig mirrors types.SupervisorConfig's scalar fields.
type SupervisorConfig struct {
	MaxIterations     int  `mapstructure:"max_iterations"`
	EnablePersistence bool `mapstructure:"enable_persistence"`
}

// ExecutableConfig configures the optional claudecli SubtaskExecutor adapter.
type ExecutableConfig struct {
	Binary       string   `mapstructure:"binary"`
	Model        string   `mapstructure:"model"`
	AllowedTools []string `mapstructure:"allowed_tools"`
}

const configFileName = "config.yaml"

// Load reads ~/.ralph/config.yaml, then <workspaceDir>/.ralph/config.yaml
// (if present, overriding the home config), applying DefaultConfig for
// anything left unset; <workspaceDir>/.env only sets process environment
// variables.
func Load(workspaceDir string) (*Config, error) {
	return LoadWithOverride(workspaceDir, "")
}

// LoadWithOverride is Load, plus one additional config file merged in last
// (highest precedence) when overridePath is non-empty — the CLI's --config
// flag.
func LoadWithOverride(workspaceDir, overridePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if home, err := homedir.Dir(); err == nil {
		homeConfig := filepath.Join(home, ".ralph", configFileName)
		if _, statErr := os.Stat(homeConfig); statErr == nil {
			v.SetConfigFile(homeConfig)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", homeConfig, err)
			}
		}
	}

	workspaceConfig := filepath.Join(workspaceDir, ".ralph", configFileName)
	if _, err := os.Stat(workspaceConfig); err == nil {
		v.SetConfigFile(workspaceConfig)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", workspaceConfig, err)
		}
	}

	if overridePath != "" {
		v.SetConfigFile(overridePath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", overridePath, err)
		}
	}

	envPath := filepath.Join(workspaceDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// DefaultConfig returns every component's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Executor: ExecutorConfig{MaxConcurrency: 4, ProgressIntervalMs: 250},
		Resolver: ResolverConfig{FailureMode: "SKIP_DEPENDENTS", PerSubtaskRetryBudget: 2},
		Validator: ValidatorConfig{
			MaxSubtasks:          50,
			MaxDependencyDepth:   10,
			MinCompletenessScore: 0.6,
		},
		Context:    types.DefaultContextManagerConfig(),
		Verifier:   types.VerifierConfig{RunTests: true, CommandTimeoutMs: 120_000},
		Supervisor: SupervisorConfig{MaxIterations: 10, EnablePersistence: true},
		Executable: ExecutableConfig{
			Binary: "claude",
			Model:  "sonnet",
			AllowedTools: []string{
				"Read", "Write", "Edit", "Bash", "Glob", "Grep",
			},
		},
	}
}

func applyDefaults(cfg *Config) {
	d := DefaultConfig()
	if cfg.Executor.MaxConcurrency == 0 {
		cfg.Executor.MaxConcurrency = d.Executor.MaxConcurrency
	}
	if cfg.Executor.ProgressIntervalMs == 0 {
		cfg.Executor.ProgressIntervalMs = d.Executor.ProgressIntervalMs
	}
	if cfg.Resolver.FailureMode == "" {
		cfg.Resolver.FailureMode = d.Resolver.FailureMode
	}
	if cfg.Resolver.PerSubtaskRetryBudget <= 0 {
		cfg.Resolver.PerSubtaskRetryBudget = d.Resolver.PerSubtaskRetryBudget
	}
	if cfg.Validator.MaxSubtasks == 0 {
		cfg.Validator.MaxSubtasks = d.Validator.MaxSubtasks
	}
	if cfg.Validator.MaxDependencyDepth == 0 {
		cfg.Validator.MaxDependencyDepth = d.Validator.MaxDependencyDepth
	}
	if cfg.Validator.MinCompletenessScore == 0 {
		cfg.Validator.MinCompletenessScore = d.Validator.MinCompletenessScore
	}
	if cfg.Context.MaxTokens == 0 {
		cfg.Context = d.Context
	}
	if cfg.Supervisor.MaxIterations == 0 {
		cfg.Supervisor.MaxIterations = d.Supervisor.MaxIterations
	}
	if cfg.Executable.Binary == "" {
		cfg.Executable.Binary = d.Executable.Binary
	}
	if len(cfg.Executable.AllowedTools) == 0 {
		cfg.Executable.AllowedTools = d.Executable.AllowedTools
	}
}
