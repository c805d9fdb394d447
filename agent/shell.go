package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// ShellTool executes a shell command on the host machine. It is the explicit
// opt-in capability that lets the model alter local state.
type ShellTool struct {
	workDir string
}

// NewShellTool creates a ShellTool running commands in workDir. An empty
// workDir runs commands in the process working directory.
func NewShellTool(workDir string) *ShellTool {
	return &ShellTool{workDir: workDir}
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Execute a shell command in the host machine's terminal. " +
		"Returns the stdout/stderr output. Use for running build commands, " +
		"git operations, file manipulation, etc. Does not support interactive commands."
}

func (t *ShellTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"command": {
				Type:        "string",
				Description: "The shell command to execute",
			},
			"timeout": {
				Type:        "number",
				Description: "Optional timeout in seconds",
			},
		},
		Required: []string{"command"},
	}
}

type shellArgs struct {
	Command string  `json:"command"`
	Timeout float64 `json:"timeout,omitempty"`
}

// Run executes the command via the system shell. The context bounds the
// execution; an argument-level timeout tightens it further. On timeout the
// whole process group is killed so stray children don't linger.
func (t *ShellTool) Run(ctx context.Context, args json.RawMessage) (string, error) {
	var sa shellArgs
	if err := json.Unmarshal(args, &sa); err != nil {
		return "", fmt.Errorf("invalid shell arguments: %w", err)
	}

	if sa.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sa.Timeout*float64(time.Second)))
		defer cancel()
	}

	shell := "/bin/bash"
	shellArg := "-c"
	if runtime.GOOS == "windows" {
		shell = "cmd.exe"
		shellArg = "/c"
	}

	cmd := exec.CommandContext(ctx, shell, shellArg, sa.Command)
	cmd.Dir = t.workDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			if cmd.Process != nil {
				_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			}
			return "", fmt.Errorf("command timed out")
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Sprintf("Exit code %d:\n%s%s", exitErr.ExitCode(), stdout.String(), stderr.String()), nil
		}
		return "", fmt.Errorf("failed to execute command: %w", err)
	}

	return stdout.String(), nil
}
