package models

import "errors"

var (
	// ErrInvalidInput indicates a malformed request or bad parameters (wrong
	// file type, overlap >= chunk size, non-positive k).
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction indicates the PDF extraction capability failed or
	// produced no text.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbeddingService indicates the external embedding capability failed
	// (rate limit, network, auth). Transient; callers may retry.
	ErrEmbeddingService = errors.New("embedding service unavailable")

	// ErrIndexBuild indicates vector index construction failed.
	ErrIndexBuild = errors.New("index build failed")

	// ErrNotFound indicates an unknown document id.
	ErrNotFound = errors.New("document not found")

	// ErrConflict indicates a duplicate document id on register. Ids are
	// generated fresh per upload, so hitting this is an invariant violation.
	ErrConflict = errors.New("document id already registered")
)
