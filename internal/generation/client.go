// Package generation is the client for the remote script generation service.
//
// The service takes an access credential and free-form description fields,
// and answers with an audio locator, the full annotated script and one
// annotated script per chapter.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API endpoints and paths.
const (
	apiGenerateMeditation = "/api/generate-meditation"
	apiHealth             = "/api/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Default values.
const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTimeout bounds one generation request.
	DefaultTimeout = 5 * time.Minute
	// GenericErrorMessage is shown when the service gives no error detail.
	GenericErrorMessage = "An error occurred while generating the meditation"
)

// Static errors.
var (
	ErrPasswordEmpty    = errors.New("password cannot be empty")
	ErrEmptyResponse    = errors.New("service returned an empty script")
	ErrUnsuccessful     = errors.New("service reported an unsuccessful generation")
	ErrHealthCheck      = errors.New("health check failed")
	ErrInvalidAudioPath = errors.New("invalid audio url")
)

// Request is the JSON body sent to the generation endpoint.
type Request struct {
	Password              string `json:"password"`
	Disease               string `json:"disease"`
	Symptom               string `json:"symptom"`
	AdditionalInstruction string `json:"additional_instruction"`
}

// Response is the JSON body returned by a successful generation.
type Response struct {
	Success        bool     `json:"success"`
	MeditationText string   `json:"meditation_text"`
	Chapters       []string `json:"chapters"`
	AudioURL       string   `json:"audio_url"`
}

// errorResponse is the JSON body of a failed request.
type errorResponse struct {
	Error string `json:"error"`
}

// ServiceError is returned for a non-2xx response. Message is the error
// text from the payload, or GenericErrorMessage when there was none.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("generation service error (%d): %s", e.StatusCode, e.Message)
}

// UserMessage returns the single message to show a user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}

	return GenericErrorMessage
}

// Client talks to the generation service over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the service at baseURL. An empty baseURL
// selects DefaultBaseURL and a non-positive timeout selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the normalised service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Generate submits req and returns the generated script. There is exactly
// one request per call; failures are not retried.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Password == "" {
		return nil, ErrPasswordEmpty
	}

	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiGenerateMeditation,
		bytes.NewReader(requestBody),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAccept, contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to generation service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseErrorResponse(resp)
	}

	var result Response

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	if !result.Success {
		return nil, ErrUnsuccessful
	}

	if result.MeditationText == "" {
		return nil, ErrEmptyResponse
	}

	return &result, nil
}

// HealthCheck verifies that the generation service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for service at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %s", ErrHealthCheck, resp.Status)
	}

	return nil
}

// AudioURL resolves the audio locator of resp against the service base URL.
// Absolute locators are returned as-is.
func (c *Client) AudioURL(resp *Response) (string, error) {
	if resp == nil || resp.AudioURL == "" {
		return "", ErrInvalidAudioPath
	}

	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAudioPath, err)
	}

	ref, err := url.Parse(resp.AudioURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidAudioPath, err)
	}

	return base.ResolveReference(ref).String(), nil
}

// parseErrorResponse reads the error payload of a failed request. It falls
// back to GenericErrorMessage when the body has no usable error field.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload errorResponse

	message := GenericErrorMessage
	if json.Unmarshal(body, &payload) == nil && strings.TrimSpace(payload.Error) != "" {
		message = payload.Error
	}

	return &ServiceError{StatusCode: resp.StatusCode, Message: message}
}
