package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

// remoteError matches the {"error": {"message": "..."}} body used both by
// this service's envelope and by most third-party JSON APIs.
type remoteError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an error naming the remote system. 4xx answers become
// AppErrors so the caller can relay them; everything else is a plain error.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", remote, resp.StatusCode, err)
	}

	message := string(body)
	var parsed remoteError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		message = parsed.Error.Message
	}
	qualified := fmt.Sprintf("%s: %s", remote, message)

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput(qualified)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(qualified)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(qualified, apperrors.ErrTooManyRequests)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified, nil)
	default:
		return fmt.Errorf("%s returned status %d: %s", remote, resp.StatusCode, message)
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
