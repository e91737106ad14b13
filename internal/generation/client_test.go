package generation_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/script-annotator/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func standardRequest() generation.Request {
	return generation.Request{
		Password:              "secret",
		Disease:               "anxiety",
		Symptom:               "racing thoughts",
		AdditionalInstruction: "focus on breathing",
	}
}

func newTestServer(t *testing.T, handler http.HandlerFunc) *generation.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return generation.NewClient(server.URL, testTimeout)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(payload)
	assert.NoError(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client := generation.NewClient("", 0)
	assert.Equal(t, generation.DefaultBaseURL, client.BaseURL())

	client = generation.NewClient("http://example.test/", time.Second)
	assert.Equal(t, "http://example.test", client.BaseURL())
}

func TestClient_Generate_Success(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate-meditation", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string

		err := json.NewDecoder(r.Body).Decode(&body)
		assert.NoError(t, err)
		assert.Equal(t, "secret", body["password"])
		assert.Equal(t, "racing thoughts", body["symptom"])
		assert.Equal(t, "focus on breathing", body["additional_instruction"])

		writeJSON(t, w, http.StatusOK, generation.Response{
			Success:        true,
			MeditationText: "**Welcome**",
			Chapters:       []string{"**Welcome**"},
			AudioURL:       "/download/meditation_1.mp3",
		})
	})

	resp, err := client.Generate(context.Background(), standardRequest())
	require.NoError(t, err)
	assert.Equal(t, "**Welcome**", resp.MeditationText)
	assert.Equal(t, []string{"**Welcome**"}, resp.Chapters)

	audioURL, err := client.AudioURL(resp)
	require.NoError(t, err)
	assert.Equal(t, client.BaseURL()+"/download/meditation_1.mp3", audioURL)
}

func TestClient_Generate_PasswordRequired(t *testing.T) {
	t.Parallel()

	client := generation.NewClient("http://127.0.0.1:1", testTimeout)

	_, err := client.Generate(context.Background(), generation.Request{})
	require.ErrorIs(t, err, generation.ErrPasswordEmpty)
}

func TestClient_Generate_ServiceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		body            string
		expectedMessage string
	}{
		{
			name:            "payload error is surfaced",
			status:          http.StatusUnauthorized,
			body:            `{"error":"Invalid password"}`,
			expectedMessage: "Invalid password",
		},
		{
			name:            "non-json body falls back",
			status:          http.StatusBadGateway,
			body:            "<html>bad gateway</html>",
			expectedMessage: generation.GenericErrorMessage,
		},
		{
			name:            "blank error field falls back",
			status:          http.StatusInternalServerError,
			body:            `{"error":"  "}`,
			expectedMessage: generation.GenericErrorMessage,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})

			_, err := client.Generate(context.Background(), standardRequest())
			require.Error(t, err)

			var serviceErr *generation.ServiceError
			require.ErrorAs(t, err, &serviceErr)
			assert.Equal(t, testCase.status, serviceErr.StatusCode)
			assert.Equal(t, testCase.expectedMessage, generation.UserMessage(err))
		})
	}
}

func TestClient_Generate_Unsuccessful(t *testing.T) {
	t.Parallel()

	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, generation.Response{Success: false})
	})

	_, err := client.Generate(context.Background(), standardRequest())
	require.ErrorIs(t, err, generation.ErrUnsuccessful)
	assert.Equal(t, generation.GenericErrorMessage, generation.UserMessage(err))
}

func TestClient_Generate_TransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	client := generation.NewClient(server.URL, testTimeout)
	server.Close()

	_, err := client.Generate(context.Background(), standardRequest())
	require.Error(t, err)
	assert.Equal(t, generation.GenericErrorMessage, generation.UserMessage(err))
}

func TestClient_HealthCheck(t *testing.T) {
	t.Parallel()

	healthy := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	require.NoError(t, healthy.HealthCheck(context.Background()))

	unhealthy := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := unhealthy.HealthCheck(context.Background())
	require.ErrorIs(t, err, generation.ErrHealthCheck)
}

func TestClient_AudioURL(t *testing.T) {
	t.Parallel()

	client := generation.NewClient("http://localhost:5000", testTimeout)

	_, err := client.AudioURL(&generation.Response{})
	require.ErrorIs(t, err, generation.ErrInvalidAudioPath)

	absolute, err := client.AudioURL(&generation.Response{AudioURL: "https://cdn.test/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.mp3", absolute)
}

func TestUserMessage_Nil(t *testing.T) {
	t.Parallel()

	assert.Empty(t, generation.UserMessage(nil))
	assert.Equal(t, generation.GenericErrorMessage, generation.UserMessage(errors.New("boom")))
}
