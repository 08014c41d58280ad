package models

import "time"

// UploadResponse is returned after a successful document ingestion.
type UploadResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// AskResponse is returned for an answered question.
type AskResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ArchivedChunk is a single chunk mirrored into the archive collection.
type ArchivedChunk struct {
	ID       string                 `json:"id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListChunksResponse is the structure for GET /api/v1/documents/:id/chunks.
type ListChunksResponse struct {
	DocumentID string          `json:"document_id"`
	Count      int             `json:"count"`
	Chunks     []ArchivedChunk `json:"chunks"`
}
