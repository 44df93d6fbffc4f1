package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prtools/prdigest/internal/domain/model"
)

// reviewThreadsQuery pages through a PR's review threads, each carrying one
// nested page of its comment connection. The two cursors are independent:
// $threadsAfter advances the thread pages, $commentsAfter advances a single
// thread's comment pages.
const reviewThreadsQuery = `query FetchReviewComments($owner: String!, $repo: String!, $pr: Int!, $threadsAfter: String, $commentsAfter: String) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $pr) {
			reviewThreads(first: 100, after: $threadsAfter) {
				pageInfo {
					hasNextPage
					endCursor
				}
				edges {
					node {
						isResolved
						path
						line
						startLine
						comments(first: 100, after: $commentsAfter) {
							pageInfo {
								hasNextPage
								endCursor
							}
							nodes {
								author {
									login
								}
								body
								url
								diffHunk
							}
						}
					}
				}
			}
		}
	}
}`

// graphqlRequest is the JSON body sent to the GitHub GraphQL API.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// graphqlEnvelope is the outer shape of every GraphQL response.
type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// pageInfo is the standard connection pagination block.
type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

// reviewThreadsData is the typed data payload of reviewThreadsQuery. Pointer
// fields mark the key paths whose absence is a host contract violation.
type reviewThreadsData struct {
	Repository *struct {
		PullRequest *struct {
			ReviewThreads reviewThreadConnection `json:"reviewThreads"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

type reviewThreadConnection struct {
	PageInfo pageInfo               `json:"pageInfo"`
	Edges    []reviewThreadEdgeNode `json:"edges"`
}

type reviewThreadEdgeNode struct {
	Node struct {
		IsResolved bool   `json:"isResolved"`
		Path       string `json:"path"`
		Line       *int   `json:"line"`
		StartLine  *int   `json:"startLine"`
		Comments   struct {
			PageInfo pageInfo            `json:"pageInfo"`
			Nodes    []threadCommentNode `json:"nodes"`
		} `json:"comments"`
	} `json:"node"`
}

type threadCommentNode struct {
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	DiffHunk string `json:"diffHunk"`
}

// doGraphQL posts one query to the GraphQL endpoint and decodes the data
// payload into out. It never retries; classification follows the adapter
// error kinds (call failure, malformed body, errors envelope, bad shape).
func (c *Client) doGraphQL(ctx context.Context, query string, variables map[string]any, out any) error {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("%w: marshaling graphql request: %v", model.ErrCallFailed, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("%w: creating graphql request: %v", model.ErrCallFailed, err)
	}
	httpReq.Header.Set("Authorization", "bearer "+c.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: graphql request: %v", model.ErrCallFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading graphql response: %v", model.ErrCallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: graphql request: HTTP %d: %s",
			model.ErrCallFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: decoding graphql response: %v", model.ErrMalformedResponse, err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("%w: %s", model.ErrGraphQL, strings.Join(messages, "; "))
	}

	if len(envelope.Data) == 0 {
		return fmt.Errorf("%w: graphql response has no data payload", model.ErrUnexpectedShape)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decoding graphql data: %v", model.ErrUnexpectedShape, err)
	}

	return nil
}

// prVariables builds the base variable set shared by all PR-scoped queries.
func prVariables(ref model.PRRef) map[string]any {
	return map[string]any{
		"owner": ref.Owner,
		"repo":  ref.Repo,
		"pr":    ref.Number,
	}
}

// FetchReviewThreadsPage retrieves one page of up to 100 review threads, each
// with the first page of up to 100 comments nested inside. An empty
// threadsCursor requests the first page.
func (c *Client) FetchReviewThreadsPage(ctx context.Context, ref model.PRRef, threadsCursor string) (model.ReviewThreadPage, error) {
	variables := prVariables(ref)
	if threadsCursor != "" {
		variables["threadsAfter"] = threadsCursor
	}

	var data reviewThreadsData
	if err := c.doGraphQL(ctx, reviewThreadsQuery, variables, &data); err != nil {
		return model.ReviewThreadPage{}, err
	}

	threads, err := data.reviewThreads()
	if err != nil {
		return model.ReviewThreadPage{}, err
	}

	page := model.ReviewThreadPage{
		HasNext:   threads.PageInfo.HasNextPage,
		EndCursor: threads.PageInfo.EndCursor,
	}
	for _, edge := range threads.Edges {
		page.Threads = append(page.Threads, mapReviewThread(edge))
	}

	return page, nil
}

// FetchThreadCommentsPage retrieves the next page of comments for the thread
// currently being enumerated. It re-issues reviewThreadsQuery with only a
// comments cursor; the API then scopes the result to the thread that cursor
// belongs to, surfaced as the first edge. A PR where several threads each
// need deep comment pagination at once is not disambiguated by this call
// shape, so callers must finish one thread before starting the next.
func (c *Client) FetchThreadCommentsPage(ctx context.Context, ref model.PRRef, commentsCursor string) (model.ThreadCommentPage, error) {
	variables := prVariables(ref)
	if commentsCursor != "" {
		variables["commentsAfter"] = commentsCursor
	}

	var data reviewThreadsData
	if err := c.doGraphQL(ctx, reviewThreadsQuery, variables, &data); err != nil {
		return model.ThreadCommentPage{}, err
	}

	threads, err := data.reviewThreads()
	if err != nil {
		return model.ThreadCommentPage{}, err
	}

	if len(threads.Edges) == 0 {
		return model.ThreadCommentPage{}, nil
	}

	return mapCommentPage(threads.Edges[0].Node.Comments.PageInfo, threads.Edges[0].Node.Comments.Nodes), nil
}

// reviewThreads validates the required key path down to the connection.
func (d *reviewThreadsData) reviewThreads() (*reviewThreadConnection, error) {
	if d.Repository == nil || d.Repository.PullRequest == nil {
		return nil, fmt.Errorf("%w: missing data.repository.pullRequest in review threads response", model.ErrUnexpectedShape)
	}
	return &d.Repository.PullRequest.ReviewThreads, nil
}

// mapReviewThread converts one GraphQL thread edge to the domain model.
func mapReviewThread(edge reviewThreadEdgeNode) model.ReviewThread {
	node := edge.Node
	return model.ReviewThread{
		IsResolved: node.IsResolved,
		Path:       node.Path,
		Line:       node.Line,
		StartLine:  node.StartLine,
		Comments:   mapCommentPage(node.Comments.PageInfo, node.Comments.Nodes),
	}
}

// mapCommentPage converts one comment connection page to the domain model.
func mapCommentPage(info pageInfo, nodes []threadCommentNode) model.ThreadCommentPage {
	page := model.ThreadCommentPage{
		HasNext:   info.HasNextPage,
		EndCursor: info.EndCursor,
	}
	for _, node := range nodes {
		var login string
		if node.Author != nil {
			login = node.Author.Login
		}
		page.Comments = append(page.Comments, model.ThreadComment{
			AuthorLogin: login,
			Body:        node.Body,
			URL:         node.URL,
			DiffHunk:    node.DiffHunk,
		})
	}
	return page
}
