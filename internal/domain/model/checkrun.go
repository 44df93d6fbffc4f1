package model

import "fmt"

// CheckRun is one failed check run from the latest commit's status-check
// rollup. Legacy free-form status contexts are filtered out before this type
// is constructed.
type CheckRun struct {
	Name          string
	DetailsURL    string
	WorkflowRunID *int64 // Nil when the check does not belong to a workflow run.
	WorkflowURL   string
}

// CIFailure is a deduplicated failed check run together with its (possibly
// summarized) log output, ready for rendering.
type CIFailure struct {
	Name          string // Defaults to "Failed check" when the API omits a name.
	WorkflowRunID *int64
	DetailsURL    string
	WorkflowURL   string
	LogOutput     string
}

// DedupKey returns the identity used to collapse duplicate rollup entries:
// the workflow run ID when known, otherwise the (name, details URL) pair.
func (c CheckRun) DedupKey() string {
	if c.WorkflowRunID != nil {
		return fmt.Sprintf("%d", *c.WorkflowRunID)
	}
	return c.Name + ":" + c.DetailsURL
}
