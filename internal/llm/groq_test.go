package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2, "system message should be prepended")
		assert.Equal(t, RoleSystem, body.Messages[0].Role)
		assert.Equal(t, RoleUser, body.Messages[1].Role)
		assert.False(t, body.Stream)

		fmt.Fprint(w, `{
			"model": "llama-3.1-8b-instant",
			"choices": [{"message": {"content": "hi there"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3}
		}`)
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "test-key", "")
	resp, err := c.Complete(context.Background(), CompletionRequest{
		System:   "be helpful",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 3, resp.Usage.OutputTokens)
}

func TestGroqCompleteProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "k", "m")
	_, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGroqCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "k", "m")
	_, err := c.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	assert.Error(t, err)
}

func TestGroqStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "k", "test-model")
	events, err := c.Stream(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	var deltas []string
	var final *CompletionResponse
	for evt := range events {
		switch evt.Type {
		case EventDelta:
			deltas = append(deltas, evt.Content)
		case EventDone:
			final = evt.Response
		case EventError:
			t.Fatalf("unexpected error event: %s", evt.Error)
		}
	}

	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	require.NotNil(t, final)
	assert.Equal(t, "Hello", final.Content)
	assert.Equal(t, "test-model", final.Model)
}

func TestGroqStreamProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGroqClient(srv.URL, "k", "m")
	events, err := c.Stream(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	var sawError bool
	for evt := range events {
		if evt.Type == EventError {
			sawError = true
		}
	}
	assert.True(t, sawError)
}

func TestMockClientDefaults(t *testing.T) {
	m := &MockClient{}
	assert.Equal(t, "mock", m.Name())

	resp, err := m.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)

	events, err := m.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	var last StreamEvent
	for evt := range events {
		last = evt
	}
	assert.Equal(t, EventDone, last.Type)
}
