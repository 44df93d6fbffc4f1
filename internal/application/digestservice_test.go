package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prtools/prdigest/internal/domain/model"
)

// --- Mock implementation of the GitHub port ---

type mockGitHubClient struct {
	threadPages    map[string]model.ReviewThreadPage  // keyed by threads cursor, "" = first page
	commentPages   map[string]model.ThreadCommentPage // keyed by comments cursor
	issueComments  []model.IssueComment
	failedRuns     []model.CheckRun
	failedRunsErr  error
	logs           map[int64]string
	logErr         error
	threadCursors  []string
	commentCursors []string
	logCalls       []int64
}

func (m *mockGitHubClient) FetchIssueComments(_ context.Context, _ model.PRRef) ([]model.IssueComment, error) {
	return m.issueComments, nil
}

func (m *mockGitHubClient) FetchReviewThreadsPage(_ context.Context, _ model.PRRef, threadsCursor string) (model.ReviewThreadPage, error) {
	m.threadCursors = append(m.threadCursors, threadsCursor)
	return m.threadPages[threadsCursor], nil
}

func (m *mockGitHubClient) FetchThreadCommentsPage(_ context.Context, _ model.PRRef, commentsCursor string) (model.ThreadCommentPage, error) {
	m.commentCursors = append(m.commentCursors, commentsCursor)
	return m.commentPages[commentsCursor], nil
}

func (m *mockGitHubClient) FetchFailedCheckRuns(_ context.Context, _ model.PRRef) ([]model.CheckRun, error) {
	return m.failedRuns, m.failedRunsErr
}

func (m *mockGitHubClient) FetchRunFailedLog(_ context.Context, _ model.PRRef, runID int64) (string, error) {
	m.logCalls = append(m.logCalls, runID)
	if m.logErr != nil {
		return "", m.logErr
	}
	return m.logs[runID], nil
}

// --- Helpers ---

func intPtr(v int) *int {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}

func testRef() model.PRRef {
	return model.PRRef{Owner: "octocat", Repo: "hello-world", Number: 42}
}

func thread(path string, line int, comments model.ThreadCommentPage) model.ReviewThread {
	return model.ReviewThread{
		Path:     path,
		Line:     intPtr(line),
		Comments: comments,
	}
}

func commentPage(hasNext bool, cursor string, bodies ...string) model.ThreadCommentPage {
	page := model.ThreadCommentPage{HasNext: hasNext, EndCursor: cursor}
	for _, body := range bodies {
		page.Comments = append(page.Comments, model.ThreadComment{AuthorLogin: "alice", Body: body})
	}
	return page
}

// --- FetchReviewComments ---

func TestFetchReviewComments_ResolvedThreadContributesNothing(t *testing.T) {
	resolved := thread("a.go", 5, commentPage(false, "", "one", "two", "three"))
	resolved.IsResolved = true

	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {Threads: []model.ReviewThread{resolved}},
		},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Empty(t, mock.commentCursors, "resolved threads must not be inspected further")
}

func TestFetchReviewComments_ThreadsCursorIsThreadedForward(t *testing.T) {
	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {
				Threads:   []model.ReviewThread{thread("a.go", 5, commentPage(false, "", "first page"))},
				HasNext:   true,
				EndCursor: "c1",
			},
			"c1": {
				Threads: []model.ReviewThread{thread("b.go", 9, commentPage(false, "", "second page"))},
			},
		},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c1"}, mock.threadCursors)
	require.Len(t, comments, 2)
	assert.Equal(t, "first page", comments[0].Body)
	assert.Equal(t, "second page", comments[1].Body)
}

func TestFetchReviewComments_ThreadCommentPagination(t *testing.T) {
	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {Threads: []model.ReviewThread{
				thread("a.go", 5, commentPage(true, "cc1", "comment 1", "comment 2")),
			}},
		},
		commentPages: map[string]model.ThreadCommentPage{
			"cc1": commentPage(true, "cc2", "comment 3"),
			"cc2": commentPage(false, "", "comment 4"),
		},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)

	assert.Equal(t, []string{"cc1", "cc2"}, mock.commentCursors)

	bodies := make([]string, 0, len(comments))
	for _, c := range comments {
		bodies = append(bodies, c.Body)
	}
	assert.Equal(t, []string{"comment 1", "comment 2", "comment 3", "comment 4"}, bodies)

	for _, c := range comments {
		assert.Equal(t, "a.go", c.Path, "later pages must carry the thread's anchor")
		require.NotNil(t, c.Line)
		assert.Equal(t, 5, *c.Line)
	}
}

func TestFetchReviewComments_NormalizationDefaults(t *testing.T) {
	bare := model.ReviewThread{
		Comments: model.ThreadCommentPage{
			Comments: []model.ThreadComment{{Body: "anonymous comment"}},
		},
	}

	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {Threads: []model.ReviewThread{bare}},
		},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)

	require.Len(t, comments, 1)
	assert.Equal(t, "unknown", comments[0].Path)
	assert.Equal(t, "unknown", comments[0].AuthorLogin)
	assert.Nil(t, comments[0].Line)
	assert.Nil(t, comments[0].OriginalLine)
}

func TestFetchReviewComments_OriginalLineMirrorsLine(t *testing.T) {
	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {Threads: []model.ReviewThread{thread("a.go", 17, commentPage(false, "", "x"))}},
		},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)

	require.Len(t, comments, 1)
	require.NotNil(t, comments[0].OriginalLine)
	assert.Equal(t, 17, *comments[0].OriginalLine)
	assert.Equal(t, comments[0].Line, comments[0].OriginalLine)
}

func TestFetchReviewComments_NoThreads(t *testing.T) {
	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{"": {}},
	}
	svc := NewDigestService(mock)

	comments, err := svc.FetchReviewComments(context.Background(), testRef())
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

// --- BuildDigest ---

func TestBuildDigest_AssemblesAllThreeSources(t *testing.T) {
	mock := &mockGitHubClient{
		threadPages: map[string]model.ReviewThreadPage{
			"": {Threads: []model.ReviewThread{thread("a.go", 5, commentPage(false, "", "inline"))}},
		},
		issueComments: []model.IssueComment{{AuthorLogin: "bob", Body: "general"}},
		failedRuns: []model.CheckRun{
			{Name: "unit-tests", WorkflowRunID: int64Ptr(7001)},
		},
		logs: map[int64]string{7001: "FAILED test_main"},
	}
	svc := NewDigestService(mock)

	digest, err := svc.BuildDigest(context.Background(), testRef(), false)
	require.NoError(t, err)

	require.Len(t, digest.ReviewComments, 1)
	require.Len(t, digest.IssueComments, 1)
	require.Len(t, digest.CIFailures, 1)
	assert.Equal(t, "FAILED test_main", digest.CIFailures[0].LogOutput)
}
