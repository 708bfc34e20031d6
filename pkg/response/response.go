package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ValidationResponse is the 422 shape: messages keyed by field path,
// e.g. "products.0.quantity".
type ValidationResponse struct {
	Status     string              `json:"status"`
	StatusCode int                 `json:"status_code"`
	Errors     map[string][]string `json:"errors"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// Validation returns a 422-style response carrying field-keyed messages.
func Validation(statusCode int, fields map[string][]string) ValidationResponse {
	return ValidationResponse{
		Status:     "error",
		StatusCode: statusCode,
		Errors:     fields,
	}
}
