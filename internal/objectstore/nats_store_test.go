// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/script-annotator/internal/annotation"
	"github.com/book-expert/script-annotator/internal/objectstore"
	"github.com/book-expert/script-annotator/internal/transcript"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newStore(t *testing.T, bucket string) (*objectstore.NatsObjectStore, nats.JetStreamContext) {
	t.Helper()

	natsServer, natsConnection := StartTestServer(t)
	t.Cleanup(natsServer.Shutdown)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, bucket)
	require.NoError(t, err)

	return store, jetstreamContext
}

func TestNatsObjectStore_PutGet(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "transcripts")
	ctx := context.Background()
	script := []byte("**Welcome**\n<break time=\"3s\"/> Breathe.")

	err := store.Put(ctx, "script-1", script)
	require.NoError(t, err)

	data, err := store.Get(ctx, "script-1")
	require.NoError(t, err)
	assert.Equal(t, script, data)
}

func TestNatsObjectStore_GetMissing(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "transcripts")

	_, err := store.Get(context.Background(), "missing")
	require.Error(t, err)
}

func TestNatsObjectStore_BindsExistingBucket(t *testing.T) {
	t.Parallel()

	store, jetstreamContext := newStore(t, "documents")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", []byte("value")))

	rebound, err := objectstore.New(jetstreamContext, "documents")
	require.NoError(t, err)

	data, err := rebound.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), data)
}

func TestNatsObjectStore_Documents(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "documents")
	ctx := context.Background()

	document := transcript.Build("Rest [inhale] now", []string{"*Soft*"})

	err := store.PutDocument(ctx, "doc.json", document)
	require.NoError(t, err)

	loaded, err := store.GetDocument(ctx, "doc.json")
	require.NoError(t, err)
	assert.Equal(t, document, loaded)
	assert.Equal(t, annotation.Breathing, loaded.Lines[0].Segments[1].Kind)
}
