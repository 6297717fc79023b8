package auth

import "fmt"

// AuthenticationError reports a rejected or malformed client-credentials
// grant. It is fatal for the call that triggered it: the manager never
// retries a failed grant internally.
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.Status, e.Body)
}
