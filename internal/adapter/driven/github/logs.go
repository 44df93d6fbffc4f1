package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/prtools/prdigest/internal/domain/model"
)

// logRedirects caps how many redirects go-github follows before handing back
// the pre-signed log location.
const logRedirects = 3

// FetchRunFailedLog returns the combined log text of a workflow run's failed
// jobs: each failed job's log is downloaded from its pre-signed location and
// prefixed with the job name. A run with no failed jobs yields an empty string.
func (c *Client) FetchRunFailedLog(ctx context.Context, ref model.PRRef, runID int64) (string, error) {
	opts := &gh.ListWorkflowJobsOptions{
		Filter:      "latest",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var failedJobs []*gh.WorkflowJob
	for {
		jobs, resp, err := c.gh.Actions.ListWorkflowJobs(ctx, ref.Owner, ref.Repo, runID, opts)
		if err != nil {
			return "", fmt.Errorf("%w: listing jobs for run %d: %v", model.ErrCallFailed, runID, err)
		}

		logRateLimit(resp, fmt.Sprintf("%s/%s/runs/%d/jobs", ref.Owner, ref.Repo, runID), opts.Page, len(jobs.Jobs))

		for _, job := range jobs.Jobs {
			if job.GetConclusion() == "failure" {
				failedJobs = append(failedJobs, job)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	var b strings.Builder
	for _, job := range failedJobs {
		logURL, _, err := c.gh.Actions.GetWorkflowJobLogs(ctx, ref.Owner, ref.Repo, job.GetID(), logRedirects)
		if err != nil {
			return "", fmt.Errorf("%w: locating logs for job %q in run %d: %v", model.ErrCallFailed, job.GetName(), runID, err)
		}

		text, err := c.downloadLog(ctx, logURL.String())
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&b, "==> Job: %s\n%s\n", job.GetName(), strings.TrimRight(text, "\n"))
	}

	return b.String(), nil
}

// downloadLog fetches plain log text from a pre-signed URL. The URL embeds
// its own authorization, so no token header is attached.
func (c *Client) downloadLog(ctx context.Context, logURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating log download request: %v", model.ErrCallFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading job log: %v", model.ErrCallFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading job log: %v", model.ErrCallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: downloading job log: HTTP %d: %s",
			model.ErrCallFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return string(body), nil
}
