package common

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
	}
}

// NewCodedErrorResponse carries a machine-usable code alongside the message
// so the check-in surface can pick the right corrective hint.
func NewCodedErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{
		Message: message,
		Code:    code,
	}
}
