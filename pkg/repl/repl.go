package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/duynguyendang/askdb/pkg/assistant"
)

// Asker is the part of the assistant the loop drives.
type Asker interface {
	Ask(ctx context.Context, question string) (*assistant.Answer, error)
	Clear()
}

const (
	exitCommand  = "exit"
	clearCommand = "clear"
	inputPrompt  = "\nAsk your question (or type \"exit\"): "
)

// Run reads one question per line from in until "exit", end of input or
// cancellation of ctx. A failed turn is reported on out and the loop continues.
func Run(ctx context.Context, a Asker, in io.Reader, out io.Writer) error {
	// Cancelled on return so the reader stops after "exit".
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, readErr := readLines(ctx, in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, inputPrompt)

		var raw string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok = <-lines:
		}
		if !ok {
			break
		}
		line := strings.TrimSpace(raw)

		switch {
		case strings.EqualFold(line, exitCommand):
			fmt.Fprintln(out, "👋 Bye!")
			return nil
		case strings.EqualFold(line, clearCommand):
			a.Clear()
			fmt.Fprintln(out, "🧹 Conversation cleared.")
			continue
		case line == "":
			continue
		}

		ans, err := a.Ask(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "\n❌ Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\n🔍 SQL Generated:\n%s\n", ans.SQL)
		fmt.Fprintf(out, "\n📝 Explanation:\n%s\n", ans.Summary)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := <-readErr; err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(out, "👋 Bye!")
	return nil
}

// readLines scans in on its own goroutine so a blocked read never holds up
// cancellation. Exactly one error (nil at clean end of input) is sent on the
// second channel before lines is closed. A read that never returns leaves
// the goroutine behind; the process is exiting by then.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}
