package driven

import (
	"context"

	"github.com/prtools/prdigest/internal/domain/model"
)

// GitHubClient defines the driven port for reading PR discussion and CI data
// from the GitHub API. Every method issues one or more blocking network calls
// and returns errors wrapped with one of the model error kinds; nothing is
// retried.
type GitHubClient interface {
	// FetchIssueComments returns the PR's general comments (via the Issues API).
	FetchIssueComments(ctx context.Context, ref model.PRRef) ([]model.IssueComment, error)

	// FetchReviewThreadsPage returns one page of up to 100 review threads,
	// each carrying the first page of its comment connection. An empty
	// threadsCursor requests the first page.
	FetchReviewThreadsPage(ctx context.Context, ref model.PRRef, threadsCursor string) (model.ReviewThreadPage, error)

	// FetchThreadCommentsPage returns the next page of comments for the
	// thread currently being enumerated. commentsCursor must come from the
	// previous page of the same thread; the two cursor kinds are independent.
	FetchThreadCommentsPage(ctx context.Context, ref model.PRRef, commentsCursor string) (model.ThreadCommentPage, error)

	// FetchFailedCheckRuns returns the failed check runs from the latest
	// commit's status-check rollup. Legacy status contexts are excluded.
	FetchFailedCheckRuns(ctx context.Context, ref model.PRRef) ([]model.CheckRun, error)

	// FetchRunFailedLog returns the failed-step log text of a workflow run.
	FetchRunFailedLog(ctx context.Context, ref model.PRRef, runID int64) (string, error)
}
