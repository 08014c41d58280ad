package models

// AskRequest is the payload for POST /api/v1/ask.
type AskRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	Question   string `json:"question" binding:"required"`
}
