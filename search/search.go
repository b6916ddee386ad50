// Package search finds sessions by content, shelling out to an external
// grep-like tool. Only the result-merging contract lives here; the tool does
// the scanning.
package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultLimit caps returned paths; further matches mark the result as
// truncated rather than erroring.
const DefaultLimit = 200

// ErrExecutableMissing reports that the search tool is not installed. This
// is surfaced, not swallowed: the user's search explicitly failed to run.
var ErrExecutableMissing = errors.New("search executable not found")

// Error is a non-zero, non-"no matches" failure from the underlying tool.
type Error struct {
	Message string
}

func (e *Error) Error() string { return "search failed: " + e.Message }

// Result is the set of relative file paths containing a match.
type Result struct {
	Paths     []string
	Truncated bool
}

// Searcher invokes the external tool with a fixed argument contract:
// case-insensitive, fixed-string matching over .jsonl files.
type Searcher struct {
	// Tool overrides the executable name. Defaults to "rg".
	Tool string
	// Limit overrides DefaultLimit. Zero means the default.
	Limit int
}

func (s *Searcher) tool() string {
	if s.Tool != "" {
		return s.Tool
	}
	return "rg"
}

func (s *Searcher) limit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return DefaultLimit
}

// Search returns the relative paths under root whose content contains term.
// "No matches" is a valid empty success. Cancelling ctx aborts the scan.
func (s *Searcher) Search(ctx context.Context, term, root string) (*Result, error) {
	if _, err := exec.LookPath(s.tool()); err != nil {
		return nil, ErrExecutableMissing
	}
	// A configured root may simply not exist on this machine (one family
	// installed, the other not). That is an empty result, not a failure.
	if _, err := os.Stat(root); err != nil {
		return &Result{}, nil
	}

	cmd := exec.CommandContext(ctx, s.tool(),
		"--files-with-matches",
		"--fixed-strings",
		"--ignore-case",
		"--no-messages",
		"--glob", "*.jsonl",
		"--", term, ".",
	)
	cmd.Dir = root

	var stderr strings.Builder
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Message: err.Error()}
	}
	if err := cmd.Start(); err != nil {
		return nil, &Error{Message: err.Error()}
	}

	result := &Result{}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(result.Paths) >= s.limit() {
			// Cap reached: stop the tool, keep what we have.
			result.Truncated = true
			_ = cmd.Process.Kill()
			break
		}
		result.Paths = append(result.Paths, strings.TrimPrefix(line, "./"))
	}

	waitErr := cmd.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result.Truncated {
		return result, nil
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 {
			// Exit 1 is "no matches": a valid empty result.
			return result, nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("%s exited: %v", s.tool(), waitErr)
		}
		return nil, &Error{Message: msg}
	}
	return result, nil
}
