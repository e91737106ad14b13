// Package worker provides a NATS worker that annotates stored transcripts.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/script-annotator/internal/core"
	"github.com/book-expert/script-annotator/internal/transcript"
)

const (
	handleMessageTimeout = 30 * time.Second
	documentKeySuffix    = ".json"
)

var (
	// ErrTranscriptKeyEmpty indicates that the event names no transcript.
	ErrTranscriptKeyEmpty = errors.New("transcript key cannot be empty")
	// ErrChapterKeyEmpty indicates that one of the chapter keys is blank.
	ErrChapterKeyEmpty = errors.New("chapter key cannot be empty")
)

// NatsWorker listens for annotation requests on a NATS subject and processes them.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	transcripts    core.ObjectStore
	documents      core.DocumentStore
	defaultStyle   transcript.MarkerStyle
	log            *logger.Logger
}

// NewNatsWorker creates a new instance of a NATS worker. defaultStyle is
// used when a request carries no marker style of its own.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	transcripts core.ObjectStore,
	documents core.DocumentStore,
	defaultStyle transcript.MarkerStyle,
	log *logger.Logger,
) (*NatsWorker, error) {
	style, err := transcript.ParseMarkerStyle(string(defaultStyle))
	if err != nil {
		return nil, fmt.Errorf("invalid default marker style: %w", err)
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		transcripts:    transcripts,
		documents:      documents,
		defaultStyle:   style,
		log:            log,
	}, nil
}

// Run subscribes to the subject and blocks until ctx is done.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.Info("Listening for annotation requests on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	reply, err := w.processAnnotationJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to annotate transcript for workflow %s: %v", event.Header.WorkflowID, err)

		return
	}

	err = w.publishReplyEvent(msg, reply)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)

		return
	}

	w.log.Info("Annotated transcript %s into %s (%d lines, %d chapters)",
		event.TranscriptKey, reply.DocumentKey, reply.LineCount, reply.ChapterCount)
}

// processAnnotationJob downloads the transcript and its chapters, annotates
// them and stores the resulting document.
func (w *NatsWorker) processAnnotationJob(
	ctx context.Context,
	event *AnnotationRequestedEvent,
) (*AnnotationCompletedEvent, error) {
	style := w.defaultStyle

	if event.MarkerStyle != "" {
		parsed, err := transcript.ParseMarkerStyle(event.MarkerStyle)
		if err != nil {
			return nil, err
		}

		style = parsed
	}

	fullText, err := w.transcripts.Get(ctx, event.TranscriptKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download transcript for key '%s': %w", event.TranscriptKey, err)
	}

	chapters := make([]string, 0, len(event.ChapterKeys))

	for _, key := range event.ChapterKeys {
		chapterText, getErr := w.transcripts.Get(ctx, key)
		if getErr != nil {
			return nil, fmt.Errorf("failed to download chapter for key '%s': %w", key, getErr)
		}

		chapters = append(chapters, string(chapterText))
	}

	if len(chapters) == 0 {
		for _, chapter := range transcript.ParseChapters(string(fullText)) {
			chapters = append(chapters, chapter.Text)
		}
	}

	document := transcript.Build(string(fullText), chapters, transcript.FiltersFor(style)...)
	documentKey := uuid.NewString() + documentKeySuffix

	err = w.documents.PutDocument(ctx, documentKey, document)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document for key '%s': %w", documentKey, err)
	}

	return &AnnotationCompletedEvent{
		Header:       event.Header,
		DocumentKey:  documentKey,
		LineCount:    document.LineCount(),
		ChapterCount: len(document.Chapters),
	}, nil
}

// publishReplyEvent marshals and responds with the AnnotationCompletedEvent.
func (w *NatsWorker) publishReplyEvent(msg *nats.Msg, replyEvent *AnnotationCompletedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func (w *NatsWorker) parseAndValidateEvent(msg *nats.Msg) (*AnnotationRequestedEvent, error) {
	var event AnnotationRequestedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	err = validateEvent(&event)
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func validateEvent(event *AnnotationRequestedEvent) error {
	if event.TranscriptKey == "" {
		return ErrTranscriptKeyEmpty
	}

	for index, key := range event.ChapterKeys {
		if key == "" {
			return fmt.Errorf("%w: index %d", ErrChapterKeyEmpty, index)
		}
	}

	if event.MarkerStyle != "" {
		_, err := transcript.ParseMarkerStyle(event.MarkerStyle)
		if err != nil {
			return err
		}
	}

	return nil
}
