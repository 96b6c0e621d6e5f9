package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Invocation is one recorded external command.
type Invocation struct {
	Name string
	Args []string
}

// RecordingRunner records command invocations. It touches the last argument
// (the output path) so callers that check for artifacts see a file, and fails
// any invocation whose joined arguments contain FailOn.
type RecordingRunner struct {
	mu     sync.Mutex
	Calls  []Invocation
	FailOn string
}

// Run satisfies ffmpeg.CommandRunner.
func (r *RecordingRunner) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.Calls = append(r.Calls, Invocation{Name: name, Args: append([]string(nil), args...)})
	r.mu.Unlock()

	if r.FailOn != "" && strings.Contains(strings.Join(args, " "), r.FailOn) {
		return errors.New("exit status 1: synthetic failure")
	}
	if len(args) > 0 {
		out := args[len(args)-1]
		if out != "-" && filepath.IsAbs(out) {
			if err := os.WriteFile(out, []byte("x"), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// Joined returns each recorded invocation's arguments joined by spaces.
func (r *RecordingRunner) Joined() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Calls))
	for _, c := range r.Calls {
		out = append(out, strings.Join(c.Args, " "))
	}
	return out
}
