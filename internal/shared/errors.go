package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")

	// Transport errors
	ErrNetwork = fmt.Errorf("upstream unreachable")

	// Input validation errors
	ErrInvalidInput = fmt.Errorf("invalid input")
)

// UpstreamError reports a non-200 response from an upstream API, carrying the
// raw status and body so endpoint handlers can surface them verbatim.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Service, e.StatusCode, e.Body)
}
