// Package render serializes aggregated PR data into the Markdown digest
// consumed by downstream automation. Rendering is pure and deterministic:
// identical inputs yield byte-identical output.
package render

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/prtools/prdigest/internal/domain/model"
)

// EmptyDigest is the canonical output when a PR has no comments and no CI
// failures. Downstream automation checks for this exact value.
const EmptyDigest = "No comments found on this PR.\n"

// Markdown renders the digest document: a title line, then (each only when
// non-empty) general PR comments in input order, inline review comments
// grouped by file, and CI failures with their logs.
func Markdown(ref model.PRRef, reviewComments []model.ReviewComment, issueComments []model.IssueComment, ciFailures []model.CIFailure) string {
	if len(issueComments) == 0 && len(reviewComments) == 0 && len(ciFailures) == 0 {
		return EmptyDigest
	}

	out := []string{fmt.Sprintf("# PR Comments: %s/%s#%d\n", ref.Owner, ref.Repo, ref.Number)}

	if len(issueComments) > 0 {
		out = append(out, "## General PR Comments\n")
		for _, comment := range issueComments {
			out = append(out,
				fmt.Sprintf("### @%s\n", loginOrUnknown(comment.AuthorLogin)),
				strings.TrimSpace(comment.Body),
				"",
			)
		}
	}

	if len(reviewComments) > 0 {
		out = append(out, "## Inline Code Review Comments\n")
		out = append(out, renderReviewComments(reviewComments)...)
	}

	if len(ciFailures) > 0 {
		out = append(out, "## CI Failures\n")
		out = append(out, renderCIFailures(ciFailures)...)
	}

	return strings.Join(out, "\n")
}

// renderReviewComments groups comments by path (sections in ascending
// lexicographic path order) and sorts each group by line, keeping arrival
// order for equal lines.
func renderReviewComments(comments []model.ReviewComment) []string {
	byFile := make(map[string][]model.ReviewComment)
	for _, c := range comments {
		path := c.Path
		if path == "" {
			path = "unknown"
		}
		byFile[path] = append(byFile[path], c)
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var out []string
	for _, path := range paths {
		out = append(out, fmt.Sprintf("\n### File: `%s`\n", path))

		fileComments := byFile[path]
		sort.SliceStable(fileComments, func(i, j int) bool {
			return sortLine(fileComments[i]) < sortLine(fileComments[j])
		})

		for _, c := range fileComments {
			out = append(out, fmt.Sprintf("#### %s (@%s)\n", lineRef(c), loginOrUnknown(c.AuthorLogin)))

			if hunk := strings.TrimSpace(c.DiffHunk); hunk != "" {
				out = append(out, "**Code context:**", "```diff", hunk, "```\n")
			}

			out = append(out, "**Comment:**", strings.TrimSpace(c.Body), "")
		}
	}
	return out
}

// renderCIFailures emits one section per failure: a header naming the run,
// an optional details link, and the log in a fenced block (or an italic
// notice when the log is empty).
func renderCIFailures(failures []model.CIFailure) []string {
	var out []string
	for _, failure := range failures {
		name := failure.Name
		if name == "" {
			name = "Failed check"
		}

		label := name
		if failure.WorkflowRunID != nil {
			label = fmt.Sprintf("%s (Run ID %d)", name, *failure.WorkflowRunID)
		}
		out = append(out, fmt.Sprintf("### %s", label))

		if failure.DetailsURL != "" {
			out = append(out, fmt.Sprintf("[Details](%s)", failure.DetailsURL))
		}

		logOutput := strings.TrimRightFunc(failure.LogOutput, unicode.IsSpace)
		if logOutput != "" {
			out = append(out, "```", logOutput, "```\n")
		} else {
			out = append(out, "_No logs available._\n")
		}
	}
	return out
}

// sortLine is the per-file sort key: Line, falling back to OriginalLine,
// defaulting to 0 when both are absent. Zero values defer like absent ones.
func sortLine(c model.ReviewComment) int {
	if v := intOrZero(c.Line); v != 0 {
		return v
	}
	return intOrZero(c.OriginalLine)
}

// lineRef renders the line-reference header for one comment.
func lineRef(c model.ReviewComment) string {
	line := intOrZero(c.Line)
	start := intOrZero(c.StartLine)

	switch {
	case start != 0 && line != 0 && start != line:
		return fmt.Sprintf("**Lines %d-%d**", start, line)
	case line != 0:
		return fmt.Sprintf("**Line %d**", line)
	default:
		return "**Position in diff**"
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func loginOrUnknown(login string) string {
	if login == "" {
		return "unknown"
	}
	return login
}
