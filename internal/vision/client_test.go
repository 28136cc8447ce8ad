package vision

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsnap/gridsnap/internal/domain"
)

// completionReply builds a chat-completions response whose assistant
// message carries the given content.
func completionReply(content string) []byte {
	resp := Response{
		ID: "cmpl-test",
		Choices: []Choice{
			{
				Message:      ChoiceMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
	data, _ := json.Marshal(resp)
	return data
}

func TestClient_ExtractTable(t *testing.T) {
	var gotAuth string
	var gotReq Request

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionReply(`{"headers": ["Item", "Stock"], "rows": [["Lamp", "32"]]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
	})

	table, err := client.ExtractTable(context.Background(), []byte("fake-image-bytes"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Stock"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Lamp", "32"}, table.Rows[0])

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, defaultModel, gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	require.Len(t, gotReq.Messages[0].Content, 2)
	require.NotNil(t, gotReq.Messages[0].Content[1].ImageURL)
	assert.Contains(t, gotReq.Messages[0].Content[1].ImageURL.URL, "data:image/png;base64,")
}

func TestClient_ExtractTable_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})

	_, err := client.ExtractTable(context.Background(), []byte("img"), "image/png")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestClient_ExtractTable_ProseReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(completionReply("Sorry, I cannot see a table in this image."))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL})

	_, err := client.ExtractTable(context.Background(), []byte("img"), "image/png")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
}

func TestClient_ExtractTable_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(ClientConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	table, err := client.ExtractTable(context.Background(), []byte("img"), "image/png")

	assert.ErrorIs(t, err, domain.ErrExtractionTimeout)
	assert.Nil(t, table, "no partial table on timeout")
	assert.Less(t, time.Since(start), 5*time.Second, "call abandoned promptly")
}

func TestClient_ExtractTable_NoCredential(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL})

	_, err := client.ExtractTable(context.Background(), []byte("img"), "image/png")

	assert.ErrorIs(t, err, domain.ErrExtractionFailed)
	assert.Equal(t, int32(0), calls.Load(), "no outbound call without a credential")
}

func TestClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{APIKey: "k"})

	assert.Equal(t, defaultModel, client.model)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultTimeout, client.timeout)
	assert.Equal(t, defaultMaxTokens, client.maxTokens)
}
