package handlers

// Error Codes
const (
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRefreshFailed    = "refresh_failed"
	ErrCodeRefreshTimeout   = "refresh_timeout"
	ErrCodeUnavailable      = "service_unavailable"
)

// ErrorMessages maps error codes to user-friendly messages
var ErrorMessages = map[string]string{
	ErrCodeMethodNotAllowed: "Method not allowed.",
	ErrCodeRefreshFailed:    "The refresh could not be queued.",
	ErrCodeRefreshTimeout:   "The refresh did not finish in time.",
	ErrCodeUnavailable:      "The update worker is not running.",
}

// ErrorResponse is the JSON body of a failed API call
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
