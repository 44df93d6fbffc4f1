package model

// ReviewThread is one review-comment thread as returned by the GraphQL API.
// Threads are transient: they are flattened into ReviewComment records during
// aggregation and not retained. A resolved thread contributes zero comments
// regardless of how many it holds.
type ReviewThread struct {
	IsResolved bool
	Path       string
	Line       *int
	StartLine  *int
	Comments   ThreadCommentPage // First page of the thread's comment connection.
}

// ReviewThreadPage is one page of the review-threads connection. EndCursor is
// the opaque token to pass as the threads cursor of the next request; it is
// only meaningful when HasNext is true.
type ReviewThreadPage struct {
	Threads   []ReviewThread
	HasNext   bool
	EndCursor string
}

// ThreadComment is one raw comment node inside a review thread, before
// normalization into a ReviewComment.
type ThreadComment struct {
	AuthorLogin string
	Body        string
	URL         string
	DiffHunk    string
}

// ThreadCommentPage is one page of a single thread's comment connection. Its
// cursor is independent of the threads cursor and must not be conflated with it.
type ThreadCommentPage struct {
	Comments  []ThreadComment
	HasNext   bool
	EndCursor string
}
