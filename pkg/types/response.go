package types

// SuccessEnvelope is the body shape for every 2xx response.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is what clients see when a request fails. Details carries
// field-level validation context when the error code permits it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope is the body shape for every error response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
