package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prtools/prdigest/internal/domain/model"
)

// ciFailuresQuery retrieves the latest commit's status-check rollup. The
// contexts connection mixes CheckRun and legacy StatusContext nodes,
// distinguished by __typename.
const ciFailuresQuery = `query FetchCIFailures($owner: String!, $repo: String!, $pr: Int!) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $pr) {
			commits(last: 1) {
				nodes {
					commit {
						oid
						statusCheckRollup {
							state
							contexts(first: 100) {
								nodes {
									__typename
									... on CheckRun {
										name
										conclusion
										detailsUrl
										databaseId
										checkSuite {
											workflowRun {
												databaseId
												url
											}
										}
									}
									... on StatusContext {
										context
										state
										targetUrl
										description
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`

// ciFailuresData is the typed data payload of ciFailuresQuery. Rollup context
// nodes stay raw until decodeRollupContext resolves their variant.
type ciFailuresData struct {
	Repository *struct {
		PullRequest *struct {
			Commits struct {
				Nodes []struct {
					Commit struct {
						Oid               string `json:"oid"`
						StatusCheckRollup *struct {
							State    string `json:"state"`
							Contexts struct {
								Nodes []json.RawMessage `json:"nodes"`
							} `json:"contexts"`
						} `json:"statusCheckRollup"`
					} `json:"commit"`
				} `json:"nodes"`
			} `json:"commits"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

// Rollup context type discriminators as reported by the API.
const (
	typenameCheckRun      = "CheckRun"
	typenameStatusContext = "StatusContext"
)

// rollupContext is the decoded form of one status-check rollup node: a tagged
// variant keyed by the GraphQL __typename discriminator. Exactly one of the
// variant pointers is set for known tags; both are nil for unknown tags.
type rollupContext struct {
	typename string
	checkRun *checkRunContext
	status   *statusContext
}

type checkRunContext struct {
	Name       string `json:"name"`
	Conclusion string `json:"conclusion"`
	DetailsURL string `json:"detailsUrl"`
	DatabaseID *int64 `json:"databaseId"`
	CheckSuite *struct {
		WorkflowRun *struct {
			DatabaseID *int64 `json:"databaseId"`
			URL        string `json:"url"`
		} `json:"workflowRun"`
	} `json:"checkSuite"`
}

type statusContext struct {
	Context     string `json:"context"`
	State       string `json:"state"`
	TargetURL   string `json:"targetUrl"`
	Description string `json:"description"`
}

// decodeRollupContext resolves a raw rollup node into its tagged variant.
// Unknown typenames decode to an empty variant rather than an error so that
// new context kinds added by the API do not break CI collection.
func decodeRollupContext(raw json.RawMessage) (rollupContext, error) {
	var tag struct {
		Typename string `json:"__typename"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return rollupContext{}, fmt.Errorf("%w: decoding rollup context discriminator: %v", model.ErrUnexpectedShape, err)
	}

	switch tag.Typename {
	case typenameCheckRun:
		var cr checkRunContext
		if err := json.Unmarshal(raw, &cr); err != nil {
			return rollupContext{}, fmt.Errorf("%w: decoding CheckRun context: %v", model.ErrUnexpectedShape, err)
		}
		return rollupContext{typename: tag.Typename, checkRun: &cr}, nil
	case typenameStatusContext:
		var sc statusContext
		if err := json.Unmarshal(raw, &sc); err != nil {
			return rollupContext{}, fmt.Errorf("%w: decoding StatusContext context: %v", model.ErrUnexpectedShape, err)
		}
		return rollupContext{typename: tag.Typename, status: &sc}, nil
	default:
		return rollupContext{typename: tag.Typename}, nil
	}
}

// FetchFailedCheckRuns retrieves the latest commit's status-check rollup and
// returns the check runs whose conclusion is FAILURE. Legacy status contexts
// and unknown context kinds are skipped.
func (c *Client) FetchFailedCheckRuns(ctx context.Context, ref model.PRRef) ([]model.CheckRun, error) {
	var data ciFailuresData
	if err := c.doGraphQL(ctx, ciFailuresQuery, prVariables(ref), &data); err != nil {
		return nil, err
	}

	if data.Repository == nil || data.Repository.PullRequest == nil {
		return nil, fmt.Errorf("%w: missing data.repository.pullRequest in CI failures response", model.ErrUnexpectedShape)
	}

	var failed []model.CheckRun
	for _, node := range data.Repository.PullRequest.Commits.Nodes {
		rollup := node.Commit.StatusCheckRollup
		if rollup == nil {
			continue
		}

		for _, raw := range rollup.Contexts.Nodes {
			decoded, err := decodeRollupContext(raw)
			if err != nil {
				return nil, err
			}

			switch decoded.typename {
			case typenameCheckRun:
				cr := decoded.checkRun
				if cr.Conclusion != "FAILURE" {
					continue
				}
				failed = append(failed, mapFailedCheckRun(cr))
			case typenameStatusContext:
				if decoded.status.State == "FAILURE" || decoded.status.State == "ERROR" {
					slog.Debug("skipping failing legacy status context",
						"context", decoded.status.Context,
						"state", decoded.status.State,
					)
				}
			default:
				slog.Debug("skipping unknown rollup context kind", "typename", decoded.typename)
			}
		}
	}

	return failed, nil
}

// mapFailedCheckRun converts a CheckRun context node to the domain model.
func mapFailedCheckRun(cr *checkRunContext) model.CheckRun {
	run := model.CheckRun{
		Name:       cr.Name,
		DetailsURL: cr.DetailsURL,
	}
	if cr.CheckSuite != nil && cr.CheckSuite.WorkflowRun != nil {
		run.WorkflowRunID = cr.CheckSuite.WorkflowRun.DatabaseID
		run.WorkflowURL = cr.CheckSuite.WorkflowRun.URL
	}
	return run
}
