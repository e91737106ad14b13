// Package core defines the interfaces shared by the annotation service components.
package core

import (
	"context"

	"github.com/book-expert/script-annotator/internal/generation"
	"github.com/book-expert/script-annotator/internal/transcript"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
}

// Generator produces annotated scripts from user-supplied fields.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Response, error)
	HealthCheck(ctx context.Context) error
	AudioURL(resp *generation.Response) (string, error)
}

// DocumentStore persists annotated documents.
type DocumentStore interface {
	PutDocument(ctx context.Context, key string, document transcript.Document) error
	GetDocument(ctx context.Context, key string) (transcript.Document, error)
}
