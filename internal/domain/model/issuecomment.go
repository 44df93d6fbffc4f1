package model

// IssueComment represents a PR-level general comment (from the GitHub Issues
// API, not the Pull Requests review comments API). Produced verbatim from the
// REST comment list.
type IssueComment struct {
	AuthorLogin string
	Body        string
}
