// Package application contains the services that orchestrate fetching and
// aggregation over the driven ports.
package application

import (
	"context"

	"github.com/prtools/prdigest/internal/domain/model"
	"github.com/prtools/prdigest/internal/domain/port/driven"
)

// DigestService aggregates a pull request's review discussion and CI failure
// data into the flat records consumed by the Markdown renderer. It holds no
// state between calls: every invocation is an independent point-in-time read,
// and no consistency is guaranteed across the three fetches if the PR changes
// between them.
type DigestService struct {
	gh driven.GitHubClient
}

// NewDigestService creates a DigestService backed by the given GitHub port.
func NewDigestService(gh driven.GitHubClient) *DigestService {
	return &DigestService{gh: gh}
}

// Digest is the complete set of inputs for one rendered document.
type Digest struct {
	ReviewComments []model.ReviewComment
	IssueComments  []model.IssueComment
	CIFailures     []model.CIFailure
}

// BuildDigest fetches review comments, issue comments, and CI failures for
// the PR, sequentially. Any error aborts the whole build; a partial digest is
// never returned.
func (s *DigestService) BuildDigest(ctx context.Context, ref model.PRRef, includeFullLogs bool) (Digest, error) {
	reviewComments, err := s.FetchReviewComments(ctx, ref)
	if err != nil {
		return Digest{}, err
	}

	issueComments, err := s.gh.FetchIssueComments(ctx, ref)
	if err != nil {
		return Digest{}, err
	}

	ciFailures, err := s.CollectCIFailures(ctx, ref, includeFullLogs)
	if err != nil {
		return Digest{}, err
	}

	return Digest{
		ReviewComments: reviewComments,
		IssueComments:  issueComments,
		CIFailures:     ciFailures,
	}, nil
}

// FetchReviewComments walks every page of the PR's review threads, skipping
// resolved threads and flattening the rest into normalized records. Comments
// arrive in thread-page order, then in comment-page order within a thread; no
// re-sorting happens here (the renderer sorts per file).
func (s *DigestService) FetchReviewComments(ctx context.Context, ref model.PRRef) ([]model.ReviewComment, error) {
	comments := []model.ReviewComment{}
	threadsCursor := ""

	for {
		page, err := s.gh.FetchReviewThreadsPage(ctx, ref, threadsCursor)
		if err != nil {
			return nil, err
		}

		for _, thread := range page.Threads {
			if thread.IsResolved {
				continue
			}
			threadComments, err := s.collectThreadComments(ctx, ref, thread)
			if err != nil {
				return nil, err
			}
			comments = append(comments, threadComments...)
		}

		if !page.HasNext {
			break
		}
		threadsCursor = page.EndCursor
	}

	return comments, nil
}

// collectThreadComments flattens one unresolved thread: the nested first page
// plus any further pages fetched by threading the comments cursor forward
// until the connection is exhausted.
func (s *DigestService) collectThreadComments(ctx context.Context, ref model.PRRef, thread model.ReviewThread) ([]model.ReviewComment, error) {
	collected := normalizeComments(thread, thread.Comments.Comments)

	page := thread.Comments
	for page.HasNext {
		next, err := s.gh.FetchThreadCommentsPage(ctx, ref, page.EndCursor)
		if err != nil {
			return nil, err
		}
		collected = append(collected, normalizeComments(thread, next.Comments)...)
		page = next
	}

	return collected, nil
}

// normalizeComments turns raw comment nodes into ReviewComment records
// carrying the thread's anchor. Missing authors and paths default to
// "unknown" instead of failing; OriginalLine is kept identical to Line for
// compatibility with older output formats.
func normalizeComments(thread model.ReviewThread, raw []model.ThreadComment) []model.ReviewComment {
	path := thread.Path
	if path == "" {
		path = "unknown"
	}

	out := make([]model.ReviewComment, 0, len(raw))
	for _, c := range raw {
		login := c.AuthorLogin
		if login == "" {
			login = "unknown"
		}
		out = append(out, model.ReviewComment{
			Path:         path,
			Line:         thread.Line,
			StartLine:    thread.StartLine,
			OriginalLine: thread.Line,
			DiffHunk:     c.DiffHunk,
			AuthorLogin:  login,
			Body:         c.Body,
			URL:          c.URL,
		})
	}
	return out
}
