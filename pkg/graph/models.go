package graph

// Container status codes reported by the platform. PENDING and IN_PROGRESS
// mean keep polling; FINISHED means the container is eligible for publish;
// ERROR and EXPIRED are terminal failures.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "IN_PROGRESS"
	StatusFinished   = "FINISHED"
	StatusError      = "ERROR"
	StatusExpired    = "EXPIRED"
)

// APIError is the error object the platform embeds in a response body.
// Its presence is the universal failure signal regardless of HTTP status.
type APIError struct {
	Message      string `json:"message"`
	Type         string `json:"type"`
	Code         int    `json:"code"`
	ErrorSubcode int    `json:"error_subcode"`
	IsTransient  bool   `json:"is_transient"`
	FbtraceID    string `json:"fbtrace_id"`
}

// ContainerResponse is returned by container creation calls.
type ContainerResponse struct {
	ID    string    `json:"id"`
	Error *APIError `json:"error,omitempty"`
}

// ContainerStatusResponse is returned by container status queries.
type ContainerStatusResponse struct {
	ID         string    `json:"id"`
	StatusCode string    `json:"status_code"`
	Status     string    `json:"status"`
	Error      *APIError `json:"error,omitempty"`
}

// PublishResponse is returned by media_publish calls; ID is the live post id.
type PublishResponse struct {
	ID    string    `json:"id"`
	Error *APIError `json:"error,omitempty"`
}

// Identity is returned by the /me identity probe.
type Identity struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	AccountType string    `json:"account_type"`
	Error       *APIError `json:"error,omitempty"`
}
