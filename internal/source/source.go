package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/greenspace-sync/internal/model"
)

// AuthError indicates that authentication has failed or expired.
// It is returned by clients when a 401 response is received.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "auth error: " + e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// NetworkError indicates that a request never produced a usable response:
// the transport failed or the server answered with a 5xx status.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error on %s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("network error on %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// ValidationError indicates that the server rejected a request as invalid.
// Messages holds the server's explanation, when it gave one.
type ValidationError struct {
	Op         string
	StatusCode int
	Messages   []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s rejected (%d)", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s rejected (%d): %s", e.Op, e.StatusCode, strings.Join(e.Messages, "; "))
}

// IsValidationError reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// Remote is the contract the sync layer needs from the work-item API.
type Remote interface {
	// FetchCollection returns every work item assigned to ownerID. It has
	// no side effects on the server.
	FetchCollection(ctx context.Context, ownerID string) ([]model.WorkItem, error)

	// Mutate applies patch to the work item and returns the server's copy.
	Mutate(ctx context.Context, id string, patch model.Patch) (model.WorkItem, error)

	// UpdateOrderStatus moves the service order to the given status code.
	UpdateOrderStatus(ctx context.Context, orderID string, status string) error
}
