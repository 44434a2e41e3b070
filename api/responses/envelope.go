package responses

// SuccessEnvelope wraps every 2xx body so clients always unwrap "data".
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carries field-level validation
// failures and only appears for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
