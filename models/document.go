package models

// ScoredChunk is a retrieved chunk with its similarity score, higher is
// better.
type ScoredChunk struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
	Index int     `json:"index"`
}
