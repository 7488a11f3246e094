package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubExec struct {
	calls []string
}

func (s *stubExec) record(name string) error {
	s.calls = append(s.calls, name)
	return nil
}

func (s *stubExec) NewAudit(ctx context.Context) error     { return s.record("new") }
func (s *stubExec) List(ctx context.Context) error         { return s.record("list") }
func (s *stubExec) Respond(ctx context.Context) error      { return s.record("respond") }
func (s *stubExec) AddPhoto(ctx context.Context) error     { return s.record("photo") }
func (s *stubExec) Complete(ctx context.Context) error     { return s.record("complete") }
func (s *stubExec) UploadStatus(ctx context.Context) error { return s.record("status") }
func (s *stubExec) Sync(ctx context.Context) error         { return s.record("sync") }
func (s *stubExec) RetryUploads(ctx context.Context) error { return s.record("retry") }
func (s *stubExec) Delete(ctx context.Context) error       { return s.record("delete") }

func runWithInput(t *testing.T, input string) (*stubExec, []string) {
	t.Helper()

	var output []string
	oldPrintln := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, 0, len(a))
		for _, v := range a {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		output = append(output, strings.Join(parts, " "))
		return 0, nil
	}
	defer func() { printlnFn = oldPrintln }()

	stub := &stubExec{}
	scanner := bufio.NewScanner(strings.NewReader(input))
	runREPL(context.Background(), stub, func() string { return "offline" }, scanner)
	return stub, output
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	stub, _ := runWithInput(t, "new\nlist\nsync\nexit\n")
	assert.Equal(t, []string{"new", "list", "sync"}, stub.calls)
}

func TestRunREPL_ListShortcut(t *testing.T) {
	stub, _ := runWithInput(t, "l\nquit\n")
	assert.Equal(t, []string{"list"}, stub.calls)
}

func TestRunREPL_UnknownCommand(t *testing.T) {
	stub, output := runWithInput(t, "frobnicate\nexit\n")
	assert.Empty(t, stub.calls)

	found := false
	for _, line := range output {
		if strings.Contains(line, "Unknown command") {
			found = true
		}
	}
	assert.True(t, found, "expected unknown-command message")
}

func TestRunREPL_EmptyLinesIgnored(t *testing.T) {
	stub, _ := runWithInput(t, "\n\nstatus\nexit\n")
	assert.Equal(t, []string{"status"}, stub.calls)
}

func TestRunREPL_EOFStopsLoop(t *testing.T) {
	stub, _ := runWithInput(t, "new\n")
	assert.Equal(t, []string{"new"}, stub.calls)
}
