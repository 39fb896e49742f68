package dto

// MessageRequest represents the request body for POST /_worker/message.
type MessageRequest struct {
	Data string `json:"data" validate:"required"`
}
