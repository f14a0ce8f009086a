package dto

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Data  interface{}  `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// SuccessResponse represents a standard success response for API endpoints
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewSuccessResponse wraps data in the envelope
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{Data: data}
}

// NewMessageResponse wraps a plain confirmation message
func NewMessageResponse(message string) APIResponse {
	return APIResponse{Data: SuccessResponse{Message: message}}
}
