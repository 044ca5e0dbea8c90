package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// Init creates a new ralph workspace in the current directory.
func Init(force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	ralphPath := filepath.Join(cwd, RalphDir)

	if _, err := os.Stat(ralphPath); err == nil {
		if !force {
			return ErrWorkspaceExists
		}
		if err := os.RemoveAll(ralphPath); err != nil {
			return fmt.Errorf("failed to remove existing workspace: %w", err)
		}
	}

	dirs := []string{
		ralphPath,
		filepath.Join(ralphPath, "decompositions"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := writeFile(filepath.Join(ralphPath, "config.yaml"), defaultConfig); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(ralphPath, ".gitignore"), defaultGitignore); err != nil {
		return err
	}

	fmt.Println("Initialized ralph workspace in", ralphPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Run 'ralph plan \"<task description>\"' to decompose a task")
	fmt.Println("  2. Run 'ralph run <task-id>' to execute it")
	fmt.Println("  3. Run 'ralph status' to see where the loop is")

	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

const defaultConfig = `# ralph configuration
executor:
  max_concurrency: 4
  progress_interval_ms: 250

resolver:
  failure_mode: SKIP_DEPENDENTS   # CONTINUE | SKIP_DEPENDENTS | RETRY | ABORT
  per_subtask_retry_budget: 2

validator:
  max_subtasks: 50
  max_dependency_depth: 10
  min_completeness_score: 0.6

context:
  maxTokens: 8000
  reservedForResponse: 500
  warningThreshold: 0.75
  criticalThreshold: 0.9
  autoCompress: true
  compressionTarget: 0.5
  minItemsToKeep: 3

verifier:
  runTests: true
  commandTimeoutMs: 120000

supervisor:
  max_iterations: 10
  enable_persistence: true

executable:
  binary: claude
  model: sonnet
  allowed_tools:
    - Read
    - Write
    - Edit
    - Bash
    - Glob
    - Grep
`

const defaultGitignore = `supervisor.json
context.json
memory.json
decompositions/
`
