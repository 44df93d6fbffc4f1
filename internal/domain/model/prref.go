package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PRRef identifies a single pull request on the host.
type PRRef struct {
	Owner  string
	Repo   string
	Number int
}

// String returns the "owner/repo#number" form used in log output and headings.
func (r PRRef) String() string {
	return fmt.Sprintf("%s/%s#%d", r.Owner, r.Repo, r.Number)
}

// ParsePRPath parses a PR path like "octocat/hello-world/pull/42" into a PRRef.
// Leading and trailing slashes are tolerated; any other shape is an error.
func ParsePRPath(path string) (PRRef, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) != 4 || parts[2] != "pull" || parts[0] == "" || parts[1] == "" {
		return PRRef{}, fmt.Errorf("invalid PR path %q: expected format 'owner/repo/pull/number'", path)
	}

	number, err := strconv.Atoi(parts[3])
	if err != nil {
		return PRRef{}, fmt.Errorf("invalid PR path %q: PR number %q is not an integer", path, parts[3])
	}

	return PRRef{Owner: parts[0], Repo: parts[1], Number: number}, nil
}
