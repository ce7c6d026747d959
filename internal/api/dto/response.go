package dto

// Response is the envelope returned by every endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failures.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError reports one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OK wraps data in a success envelope.
func OK(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}
