// Package claudecli is an optional executor.SubtaskExecutor backed by the
// Claude Code CLI, shelling out non-interactively and parsing its
// stream-json output. It is not part of the deterministic core: the
// supervisor, resolver, and executor never import it directly, and any
// other SubtaskExecutor implementation works in its place.
package claudecli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralphcore/ralph/internal/types"
)

// Config configures one Executor instance.
type Config struct {
	Binary       string
	Model        string
	AllowedTools []string
	WorkDir      string
}

// Executor implements executor.SubtaskExecutor using the claude binary.
type Executor struct {
	cfg Config
}

// New resolves the claude binary path and returns an Executor.
func New(cfg Config) *Executor {
	if cfg.Binary == "" {
		cfg.Binary = "claude"
	}
	cfg.Binary = resolveBinaryPath(cfg.Binary)
	return &Executor{cfg: cfg}
}

func resolveBinaryPath(binaryPath string) string {
	if filepath.IsAbs(binaryPath) {
		return binaryPath
	}
	if path, err := exec.LookPath(binaryPath); err == nil {
		return path
	}
	home, _ := os.UserHomeDir()
	for _, p := range []string{
		filepath.Join(home, ".claude", "local", "claude"),
		"/usr/local/bin/claude",
		"/opt/homebrew/bin/claude",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return binaryPath
}

func notFoundError() error {
	return fmt.Errorf(`claude not found in PATH

To fix, add to your shell profile:
  export PATH="$HOME/.claude/local:$PATH"

Or set the full path in .ralph/config.yaml under executable.binary`)
}

// Execute runs one subtask through claude and maps the result back to a
// SubtaskResult, satisfying executor.SubtaskExecutor.
func (e *Executor) Execute(ctx context.Context, subtask *types.Subtask, taskCtx *types.TaskContext) (*types.SubtaskResult, error) {
	start := time.Now()
	prompt := buildPrompt(subtask, taskCtx)

	args := []string{"-p", prompt, "--output-format", "stream-json", "--verbose"}
	if e.cfg.Model != "" {
		args = append([]string{"--model", e.cfg.Model}, args...)
	}
	if len(e.cfg.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(e.cfg.AllowedTools, ","))
	}

	cmd := exec.CommandContext(ctx, e.cfg.Binary, args...)
	cmd.Dir = e.cfg.WorkDir
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, notFoundError()
		}
		return nil, fmt.Errorf("failed to start claude: %w", err)
	}

	text, toolsUsed := parseStream(stdout)
	waitErr := cmd.Wait()

	result := &types.SubtaskResult{
		Success:     waitErr == nil,
		Output:      text,
		DurationMs:  time.Since(start).Milliseconds(),
		CommandsRun: toolsUsed,
	}
	if waitErr != nil {
		result.Error = waitErr.Error()
	}
	return result, nil
}

func buildPrompt(subtask *types.Subtask, taskCtx *types.TaskContext) string {
	var b strings.Builder
	if taskCtx != nil {
		fmt.Fprintf(&b, "Task: %s\n\n", taskCtx.Description)
	}
	fmt.Fprintf(&b, "Subtask: %s\n", subtask.Title)
	if subtask.Description != "" {
		fmt.Fprintf(&b, "%s\n", subtask.Description)
	}
	if len(subtask.AffectedFiles) > 0 {
		fmt.Fprintf(&b, "\nAffected files:\n")
		for _, f := range subtask.AffectedFiles {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	if len(subtask.AcceptanceCriteria) > 0 {
		fmt.Fprintf(&b, "\nAcceptance criteria:\n")
		for _, c := range subtask.AcceptanceCriteria {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

// streamEvent and messageContent mirror the subset of Claude Code's
// stream-json schema this adapter actually consumes.
type streamEvent struct {
	Type    string           `json:"type"`
	Message *messageContent  `json:"message,omitempty"`
	Result  string           `json:"result,omitempty"`
}

type messageContent struct {
	Content []contentBlock `json:"content,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// parseStream drains a claude stream-json pipe, returning the final result
// text and the list of tool names invoked along the way.
func parseStream(r io.Reader) (string, []string) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var tools []string
	var final string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var ev streamEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		switch ev.Type {
		case "assistant":
			if ev.Message == nil {
				continue
			}
			for _, c := range ev.Message.Content {
				if c.Type == "tool_use" {
					tools = append(tools, c.Name)
				}
			}
		case "result":
			final = ev.Result
		}
	}
	return final, tools
}
