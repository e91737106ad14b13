// Package objectstore stores transcripts and annotated documents in a NATS
// JetStream object store bucket.
package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/script-annotator/internal/transcript"
)

const documentContentType = "application/json"

// NatsObjectStore implements the core.ObjectStore interface using NATS JetStream.
type NatsObjectStore struct {
	bucket string
	store  nats.ObjectStore
}

// New binds to bucketName, creating it on first use.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, err := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Annotated transcript storage for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	return &NatsObjectStore{
		bucket: bucketName,
		store:  store,
	}, nil
}

// Get retrieves an object's bytes.
func (n *NatsObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	obj, err := n.store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, n.bucket, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Put saves data under key, replacing any previous object.
func (n *NatsObjectStore) Put(_ context.Context, key string, data []byte) error {
	_, err := n.store.Put(&nats.ObjectMeta{Name: key}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// PutDocument stores document as JSON under key.
func (n *NatsObjectStore) PutDocument(_ context.Context, key string, document transcript.Document) error {
	data, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("failed to marshal document '%s': %w", key, err)
	}

	_, err = n.store.Put(&nats.ObjectMeta{
		Name:    key,
		Headers: nats.Header{"Content-Type": []string{documentContentType}},
	}, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to put document '%s' to bucket '%s': %w", key, n.bucket, err)
	}

	return nil
}

// GetDocument loads a document stored by PutDocument.
func (n *NatsObjectStore) GetDocument(ctx context.Context, key string) (transcript.Document, error) {
	var document transcript.Document

	data, err := n.Get(ctx, key)
	if err != nil {
		return document, err
	}

	err = json.Unmarshal(data, &document)
	if err != nil {
		return document, fmt.Errorf("failed to decode document '%s': %w", key, err)
	}

	return document, nil
}
