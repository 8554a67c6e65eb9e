package identity

import "fmt"

// ValidatePlatformID enforces the platform id charset (Slack ids are
// upper-case alphanumerics, but lower-case, '-' and '_' are accepted for
// other drivers).
func ValidatePlatformID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s id required", ErrInvalidArgument, kind)
	}
	for _, r := range id {
		if r != '-' && r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("%w: invalid %s id %q", ErrInvalidArgument, kind, id)
		}
	}
	return nil
}
