package identity

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	// ErrConfiguration reports a missing or duplicate extension registration.
	ErrConfiguration = fmt.Errorf("identity configuration: %w", errdefs.ErrFailedPrecondition)
	// ErrNotFound reports a missing identity, tenant, channel or extension record.
	ErrNotFound = fmt.Errorf("identity record not found: %w", errdefs.ErrNotFound)
	// ErrConflict reports a storage uniqueness violation.
	ErrConflict = fmt.Errorf("identity record conflict: %w", errdefs.ErrAlreadyExists)
	// ErrInvalidArgument reports malformed input such as an empty platform id.
	ErrInvalidArgument = fmt.Errorf("identity argument: %w", errdefs.ErrInvalidArgument)
)

// RemoteLookupError reports that the platform could not describe a user.
// Nothing is written when it is returned.
type RemoteLookupError struct {
	Op       string
	TenantID string
	UserID   string
	Err      error
}

func (e *RemoteLookupError) Error() string {
	return fmt.Sprintf("remote lookup %s for %s/%s: %v", e.Op, e.TenantID, e.UserID, e.Err)
}

func (e *RemoteLookupError) Unwrap() []error {
	return []error{errdefs.ErrUnavailable, e.Err}
}

// IsRemoteLookup reports whether err is or wraps a RemoteLookupError.
func IsRemoteLookup(err error) bool {
	var target *RemoteLookupError
	return errors.As(err, &target)
}
