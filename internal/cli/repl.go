package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	NewAudit(ctx context.Context) error
	List(ctx context.Context) error
	Respond(ctx context.Context) error
	AddPhoto(ctx context.Context) error
	Complete(ctx context.Context) error
	UploadStatus(ctx context.Context) error
	Sync(ctx context.Context) error
	RetryUploads(ctx context.Context) error
	Delete(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the AuditFlow client.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are ignored here; handlers
// print their own errors. This keeps the REPL loop resilient and focused
// on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("af> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Available commands: new, (l)ist, respond, photo, complete, status, sync, retry, delete, exit")

		case "new":
			_ = a.NewAudit(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "respond":
			_ = a.Respond(ctx)

		case "photo":
			_ = a.AddPhoto(ctx)

		case "complete":
			_ = a.Complete(ctx)

		case "status":
			_ = a.UploadStatus(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "retry":
			_ = a.RetryUploads(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
