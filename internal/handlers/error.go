package handlers

// ErrorResponse is the JSON error body written when no redirect target is configured.
type ErrorResponse struct {
	Message string `json:"message"`
}
