package errors

import "fmt"

// ErrorType represents different types of errors that can occur
// while publishing to the Graph API.
type ErrorType string

const (
	// ErrorTypeNoValidMedia means every image reference in the request
	// was nil or the request exceeded the platform's child limit.
	ErrorTypeNoValidMedia ErrorType = "no_valid_media"

	// ErrorTypeRemoteAPI means the platform returned an error object in
	// its JSON response.
	ErrorTypeRemoteAPI ErrorType = "remote_api"

	// ErrorTypeContainerProcessing means a media container finished in
	// the ERROR or EXPIRED state.
	ErrorTypeContainerProcessing ErrorType = "container_processing"

	// ErrorTypeContainerTimeout means a container never reached FINISHED
	// within the polling budget.
	ErrorTypeContainerTimeout ErrorType = "container_timeout"

	// ErrorTypeAccountNotFound means the credential is valid but not
	// linked to a business or creator account.
	ErrorTypeAccountNotFound ErrorType = "account_not_found"

	// ErrorTypeInvalidCredential means the access token was rejected.
	ErrorTypeInvalidCredential ErrorType = "invalid_credential"

	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeParsing ErrorType = "parsing"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error represents a publishing error with type information and enough
// context (container id, platform status text, attempt count) to diagnose
// a failed publish without retrying blindly.
type Error struct {
	Type        ErrorType
	Message     string
	Code        int
	ContainerID string
	Status      string
	Attempts    int
}

func (e *Error) Error() string {
	switch e.Type {
	case ErrorTypeContainerProcessing:
		return fmt.Sprintf("%s error: container %s reported status %s", e.Type, e.ContainerID, e.Status)
	case ErrorTypeContainerTimeout:
		return fmt.Sprintf("%s error: container %s not finished after %d attempts", e.Type, e.ContainerID, e.Attempts)
	default:
		return fmt.Sprintf("%s error: %s", e.Type, e.Message)
	}
}

// NewNoValidMedia reports a request whose image list is unusable.
func NewNoValidMedia(message string) *Error {
	return &Error{Type: ErrorTypeNoValidMedia, Message: message}
}

// NewRemoteAPI wraps an error object returned by the platform.
func NewRemoteAPI(message string, code int) *Error {
	return &Error{Type: ErrorTypeRemoteAPI, Message: message, Code: code}
}

// NewContainerProcessing reports a container that ended in ERROR/EXPIRED.
func NewContainerProcessing(containerID, status string) *Error {
	return &Error{
		Type:        ErrorTypeContainerProcessing,
		Message:     "container processing failed",
		ContainerID: containerID,
		Status:      status,
	}
}

// NewContainerTimeout reports an exhausted polling budget.
func NewContainerTimeout(containerID string, attempts int) *Error {
	return &Error{
		Type:        ErrorTypeContainerTimeout,
		Message:     "container processing timed out",
		ContainerID: containerID,
		Attempts:    attempts,
	}
}

// NewAccountNotFound reports a credential without a linked business account.
func NewAccountNotFound(message string) *Error {
	return &Error{Type: ErrorTypeAccountNotFound, Message: message}
}

// NewInvalidCredential reports a rejected access token.
func NewInvalidCredential(reason string) *Error {
	return &Error{Type: ErrorTypeInvalidCredential, Message: reason}
}

// IsRetryable checks if an error type is worth retrying later. A container
// timeout may resolve on a later attempt; a processing error or platform
// error object will not.
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeContainerTimeout, ErrorTypeNetwork:
		return true
	case ErrorTypeRemoteAPI, ErrorTypeContainerProcessing, ErrorTypeNoValidMedia,
		ErrorTypeAccountNotFound, ErrorTypeInvalidCredential, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 400, 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
