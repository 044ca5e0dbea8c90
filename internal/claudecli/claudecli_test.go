package claudecli

import (
	"strings"
	"testing"

	"github.com/ralphcore/ralph/internal/types"
)

func TestBuildPromptIncludesTaskAndSubtask(t *testing.T) {
	taskCtx := &types.TaskContext{Description: "migrate the billing service"}
	subtask := &types.Subtask{
		Title:              "add retry middleware",
		Description:        "wrap outbound calls in a retrying transport",
		AffectedFiles:      []string{"billing/client.go"},
		AcceptanceCriteria: []string{"retries use exponential backoff"},
	}

	got := buildPrompt(subtask, taskCtx)

	for _, want := range []string{
		"migrate the billing service",
		"add retry middleware",
		"wrap outbound calls in a retrying transport",
		"billing/client.go",
		"retries use exponential backoff",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("buildPrompt() missing %q in:\n%s", want, got)
		}
	}
}

func TestBuildPromptWithoutTaskContext(t *testing.T) {
	subtask := &types.Subtask{Title: "standalone subtask"}
	got := buildPrompt(subtask, nil)
	if !strings.Contains(got, "standalone subtask") {
		t.Errorf("buildPrompt() = %q, want subtask title present", got)
	}
	if strings.Contains(got, "Task:") {
		t.Errorf("buildPrompt() = %q, want no Task: line when taskCtx is nil", got)
	}
}

func TestParseStreamExtractsResultAndToolNames(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read"}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"thinking"},{"type":"tool_use","name":"Edit"}]}}`,
		`not json, should be skipped`,
		`{"type":"result","result":"done: added retry middleware"}`,
	}, "\n")

	text, tools := parseStream(strings.NewReader(stream))

	if text != "done: added retry middleware" {
		t.Errorf("parseStream() text = %q", text)
	}
	wantTools := []string{"Read", "Edit"}
	if len(tools) != len(wantTools) {
		t.Fatalf("parseStream() tools = %v, want %v", tools, wantTools)
	}
	for i, want := range wantTools {
		if tools[i] != want {
			t.Errorf("tools[%d] = %q, want %q", i, tools[i], want)
		}
	}
}

func TestParseStreamEmptyInput(t *testing.T) {
	text, tools := parseStream(strings.NewReader(""))
	if text != "" || len(tools) != 0 {
		t.Errorf("parseStream(empty) = (%q, %v), want (\"\", nil)", text, tools)
	}
}

func TestResolveBinaryPathAbsolute(t *testing.T) {
	const abs = "/opt/custom/claude"
	if got := resolveBinaryPath(abs); got != abs {
		t.Errorf("resolveBinaryPath(%q) = %q, want unchanged", abs, got)
	}
}
