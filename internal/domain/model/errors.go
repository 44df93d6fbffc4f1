package model

import "errors"

// Error kinds raised by the GitHub adapter. Every error returned from the
// adapter wraps exactly one of these sentinels so that callers can classify
// failures with errors.Is without inspecting message text.
var (
	// ErrCallFailed marks transport or auth failures: network errors and
	// non-2xx responses from the host.
	ErrCallFailed = errors.New("github api call failed")

	// ErrMalformedResponse marks response bodies that are not valid JSON.
	ErrMalformedResponse = errors.New("malformed github api response")

	// ErrGraphQL marks well-formed GraphQL envelopes carrying a non-empty
	// top-level errors array.
	ErrGraphQL = errors.New("graphql query returned errors")

	// ErrUnexpectedShape marks responses that parsed as JSON but are missing
	// a required key path or carry the wrong type at one. Treated as a host
	// API contract violation.
	ErrUnexpectedShape = errors.New("unexpected github api response shape")
)
