package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prtools/prdigest/internal/domain/model"
)

// logTailLines is how much of a log survives summarization when neither the
// test-summary marker nor a "failed" line is found.
const logTailLines = 40

// noRunIDLogText is emitted for failed checks that carry no workflow run ID,
// where there is nothing to fetch logs from.
const noRunIDLogText = "No workflow run ID available to fetch logs."

// CollectCIFailures fetches the PR's failed check runs, deduplicates them,
// and attaches each run's (possibly summarized) log output. A failed log
// fetch for one run is absorbed into that run's log text rather than aborting
// the collection; all other errors propagate.
func (s *DigestService) CollectCIFailures(ctx context.Context, ref model.PRRef, includeFullLogs bool) ([]model.CIFailure, error) {
	failedRuns, err := s.gh.FetchFailedCheckRuns(ctx, ref)
	if err != nil {
		return nil, err
	}

	failures := []model.CIFailure{}
	seen := make(map[string]bool)

	for _, run := range failedRuns {
		if run.Name == "" {
			run.Name = "Failed check"
		}

		key := run.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		var rawLog string
		if run.WorkflowRunID != nil {
			log, err := s.gh.FetchRunFailedLog(ctx, ref, *run.WorkflowRunID)
			switch {
			case errors.Is(err, model.ErrCallFailed):
				rawLog = fmt.Sprintf("Failed to fetch logs for run %d: %v", *run.WorkflowRunID, err)
			case err != nil:
				return nil, err
			default:
				rawLog = log
			}
		} else {
			rawLog = noRunIDLogText
		}

		failures = append(failures, model.CIFailure{
			Name:          run.Name,
			WorkflowRunID: run.WorkflowRunID,
			DetailsURL:    run.DetailsURL,
			WorkflowURL:   run.WorkflowURL,
			LogOutput:     SummarizeLog(rawLog, includeFullLogs),
		})
	}

	return failures, nil
}

// SummarizeLog reduces a CI log to the portion most relevant to the failure:
// everything from the test-runner summary marker onward if present, else from
// the first line mentioning "failed", else the last 40 lines. includeFull
// skips summarization entirely. Matching is case-insensitive.
func SummarizeLog(logOutput string, includeFull bool) string {
	if includeFull || logOutput == "" {
		return logOutput
	}

	trimmed := strings.TrimSpace(logOutput)
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")

	start := findLine(lines, "short test summary info")
	if start < 0 {
		start = findLine(lines, "failed")
	}
	if start < 0 {
		start = len(lines) - logTailLines
		if start < 0 {
			start = 0
		}
	}

	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

// findLine returns the index of the first line containing substr,
// case-insensitively, or -1.
func findLine(lines []string, substr string) int {
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), substr) {
			return i
		}
	}
	return -1
}
