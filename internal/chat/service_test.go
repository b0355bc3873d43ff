package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Allen20077/8berries/internal/domain"
	"github.com/Allen20077/8berries/internal/llm"
	"github.com/Allen20077/8berries/internal/logging"
	"github.com/Allen20077/8berries/internal/store"
)

func testService(t *testing.T, client llm.Client) (*Service, *store.MemorySessionStore) {
	t.Helper()
	ss := store.NewMemorySessionStore()
	svc := NewService(Config{Model: "test-model", Timeout: time.Second}, ss, client, logging.New(nil, "silent"))
	return svc, ss
}

func TestExchange_TextReply(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			assert.NotEmpty(t, req.System)
			require.Len(t, req.Messages, 1)
			assert.Equal(t, "hi", req.Messages[0].Content)
			return &llm.CompletionResponse{Content: "hello"}, nil
		},
	}
	svc, ss := testService(t, client)

	res, err := svc.Exchange(context.Background(), "alice@example.com", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, domain.KindText, res.Reply.Kind)
	assert.Equal(t, "hello", res.Reply.Text)
	require.NotEmpty(t, res.SessionID)

	turns, err := ss.ListTurns(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "hi", turns[0].Text)
	assert.Equal(t, domain.RoleAssistant, turns[1].Role)
	assert.Equal(t, "hello", turns[1].Text)
}

func TestExchange_ChartReply(t *testing.T) {
	raw := `{"chartType":"bar","title":"X","labels":["a","b"],"data":[1,2]}`
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: raw}, nil
		},
	}
	svc, ss := testService(t, client)

	res, err := svc.Exchange(context.Background(), "alice@example.com", "", "chart please")
	require.NoError(t, err)
	assert.Equal(t, domain.KindChart, res.Reply.Kind)
	require.NotNil(t, res.Reply.Chart)
	assert.Equal(t, domain.ChartBar, res.Reply.Chart.ChartType)
	assert.Equal(t, []string{"a", "b"}, res.Reply.Chart.Labels)

	turns, err := ss.ListTurns(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.KindChart, turns[1].Kind)
	require.NotNil(t, turns[1].Chart)
	assert.Equal(t, "X", turns[1].Chart.Title)
}

func TestExchange_EmptyMessage(t *testing.T) {
	called := false
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			called = true
			return &llm.CompletionResponse{Content: "x"}, nil
		},
	}
	svc, ss := testService(t, client)

	_, err := svc.Exchange(context.Background(), "alice@example.com", "", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.False(t, called, "provider must not be called for an empty message")

	sessions, err := ss.ListByIdentity(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, sessions, "no session should be created for an empty message")
}

func TestExchange_ProviderFailure(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc, ss := testService(t, client)

	res, err := svc.Exchange(context.Background(), "alice@example.com", "", "hi")
	require.NoError(t, err, "provider failure must not surface as an error")
	assert.Equal(t, domain.KindText, res.Reply.Kind)
	assert.Equal(t, ReplyProviderError, res.Reply.Text)

	turns, err := ss.ListTurns(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Empty(t, turns, "provider failure must persist zero turns")
}

func TestExchange_EmptyProviderResponse(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: ""}, nil
		},
	}
	svc, ss := testService(t, client)

	res, err := svc.Exchange(context.Background(), "alice@example.com", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, ReplyEmptyResponse, res.Reply.Text)

	turns, err := ss.ListTurns(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Len(t, turns, 2, "an empty-but-successful response still persists the exchange")
}

func TestExchange_ExplicitSession(t *testing.T) {
	svc, ss := testService(t, &llm.MockClient{})

	sess, err := ss.Create(context.Background(), "alice@example.com", "work")
	require.NoError(t, err)

	res, err := svc.Exchange(context.Background(), "alice@example.com", sess.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, res.SessionID)
}

func TestExchange_ForeignSession(t *testing.T) {
	svc, ss := testService(t, &llm.MockClient{})

	sess, err := ss.Create(context.Background(), "bob@example.com", "private")
	require.NoError(t, err)

	_, err = svc.Exchange(context.Background(), "alice@example.com", sess.ID, "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestExchange_ReusesSession(t *testing.T) {
	svc, _ := testService(t, &llm.MockClient{})
	ctx := context.Background()

	first, err := svc.Exchange(ctx, "alice@example.com", "", "one")
	require.NoError(t, err)
	second, err := svc.Exchange(ctx, "alice@example.com", "", "two")
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
}

func TestExchangeStream_DeliversAndPersists(t *testing.T) {
	client := &llm.MockClient{
		StreamFunc: func(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			ch := make(chan llm.StreamEvent, 4)
			ch <- llm.StreamEvent{Type: llm.EventDelta, Content: "hel"}
			ch <- llm.StreamEvent{Type: llm.EventDelta, Content: "lo"}
			ch <- llm.StreamEvent{Type: llm.EventDone, Response: &llm.CompletionResponse{Content: "hello"}}
			close(ch)
			return ch, nil
		},
	}
	svc, ss := testService(t, client)

	var tokens []string
	err := svc.ExchangeStream(context.Background(), "alice@example.com", "", "hi", func(token string) error {
		tokens = append(tokens, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hel", "lo"}, tokens)

	sessions, err := ss.ListByIdentity(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	turns, err := ss.ListTurns(context.Background(), sessions[0].ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hi", turns[0].Text)
	assert.Equal(t, "hello", turns[1].Text)
	assert.Equal(t, domain.KindText, turns[1].Kind, "streamed output is never classified")
}

func TestExchangeStream_CancellationPersistsNothing(t *testing.T) {
	client := &llm.MockClient{
		StreamFunc: func(ctx context.Context, _ llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			ch := make(chan llm.StreamEvent)
			go func() {
				defer close(ch)
				for i := 0; i < 100; i++ {
					select {
					case ch <- llm.StreamEvent{Type: llm.EventDelta, Content: "x"}:
					case <-ctx.Done():
						return
					}
				}
			}()
			return ch, nil
		},
	}
	svc, ss := testService(t, client)

	disconnected := errors.New("client gone")
	seen := 0
	err := svc.ExchangeStream(context.Background(), "alice@example.com", "", "hi", func(string) error {
		seen++
		if seen >= 3 {
			return disconnected
		}
		return nil
	})
	assert.ErrorIs(t, err, disconnected)

	sessions, err := ss.ListByIdentity(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	turns, err := ss.ListTurns(context.Background(), sessions[0].ID)
	require.NoError(t, err)
	assert.Empty(t, turns, "a cancelled stream must persist nothing")
}

func TestExchangeStream_ProviderError(t *testing.T) {
	client := &llm.MockClient{
		StreamFunc: func(_ context.Context, _ llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
			ch := make(chan llm.StreamEvent, 2)
			ch <- llm.StreamEvent{Type: llm.EventDelta, Content: "par"}
			ch <- llm.StreamEvent{Type: llm.EventError, Error: "upstream 500"}
			close(ch)
			return ch, nil
		},
	}
	svc, ss := testService(t, client)

	err := svc.ExchangeStream(context.Background(), "alice@example.com", "", "hi", func(string) error { return nil })
	require.Error(t, err)

	sessions, err := ss.ListByIdentity(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	turns, err := ss.ListTurns(context.Background(), sessions[0].ID)
	require.NoError(t, err)
	assert.Empty(t, turns, "a failed stream must persist nothing")
}

func TestExchangeStream_EmptyMessage(t *testing.T) {
	svc, _ := testService(t, &llm.MockClient{})
	err := svc.ExchangeStream(context.Background(), "alice@example.com", "", "", func(string) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHistory(t *testing.T) {
	svc, ss := testService(t, &llm.MockClient{})
	ctx := context.Background()

	turns, err := svc.History(ctx, "alice@example.com", "")
	require.NoError(t, err)
	assert.Empty(t, turns, "no sessions yet means empty history")

	sess, err := ss.Create(ctx, "alice@example.com", "work")
	require.NoError(t, err)
	require.NoError(t, ss.AppendTurn(ctx, sess.ID, domain.TextTurn(domain.RoleUser, "hi")))
	require.NoError(t, ss.AppendTurn(ctx, sess.ID, domain.TextTurn(domain.RoleAssistant, "hello")))

	turns, err = svc.History(ctx, "alice@example.com", "")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, domain.RoleUser, turns[0].Role)

	turns, err = svc.History(ctx, "alice@example.com", sess.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 2)

	_, err = svc.History(ctx, "bob@example.com", sess.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestHistory_DefaultMatchesExchangeWithPinnedStaleSession(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "hello"}, nil
		},
	}
	svc, ss := testService(t, client)
	ctx := context.Background()

	stale, err := ss.Create(ctx, "alice@example.com", "pinned")
	require.NoError(t, err)
	require.NoError(t, ss.SetPinned(ctx, stale.ID, true))

	recent, err := ss.Create(ctx, "alice@example.com", "recent")
	require.NoError(t, err)
	require.NoError(t, ss.AppendTurn(ctx, recent.ID, domain.TextTurn(domain.RoleUser, "earlier")))

	res, err := svc.Exchange(ctx, "alice@example.com", "", "hi")
	require.NoError(t, err)
	assert.Equal(t, recent.ID, res.SessionID, "default exchange goes to the most recently updated session")

	turns, err := svc.History(ctx, "alice@example.com", "")
	require.NoError(t, err)
	require.Len(t, turns, 3, "default history replays the session the exchange wrote to")
	assert.Equal(t, "hi", turns[1].Text)
	assert.Equal(t, "hello", turns[2].Text)
}

func TestSessionManagement(t *testing.T) {
	svc, _ := testService(t, &llm.MockClient{})
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, "alice@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSessionTitle, sess.Title)

	require.NoError(t, svc.RenameSession(ctx, "alice@example.com", sess.ID, "Quarterly"))
	require.NoError(t, svc.PinSession(ctx, "alice@example.com", sess.ID, true))

	sessions, err := svc.Sessions(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Quarterly", sessions[0].Title)
	assert.True(t, sessions[0].Pinned)

	assert.ErrorIs(t, svc.RenameSession(ctx, "bob@example.com", sess.ID, "x"), domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, "bob@example.com", sess.ID), domain.ErrSessionNotFound)

	require.NoError(t, svc.DeleteSession(ctx, "alice@example.com", sess.ID))
	sessions, err = svc.Sessions(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
