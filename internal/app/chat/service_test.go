package chat_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gviz-app/gviz-api/internal/adapters/llm"
	"github.com/gviz-app/gviz-api/internal/app/chat"
	"github.com/gviz-app/gviz-api/internal/domain"
)

func newTestService(mock *llm.MockGenerator) *chat.Service {
	return chat.NewService(mock, chat.NewHistory(40), 5*time.Second)
}

func TestRespond_TextAccumulatesHistory(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockGenerator()
	svc := newTestService(mock)
	ctx := context.Background()

	res := svc.Respond(ctx, "u1", "Hello", nil)
	require.True(t, res.Success)

	res = svc.Respond(ctx, "u1", "How are you?", nil)
	require.True(t, res.Success)

	turns := svc.History("u1")
	require.Len(t, turns, 4)
	assert.Equal(t, domain.RoleUser, turns[0].Role)
	assert.Equal(t, "Hello", turns[0].Text)
	assert.Equal(t, domain.RoleModel, turns[1].Role)
	assert.Equal(t, domain.RoleUser, turns[2].Role)
	assert.Equal(t, "How are you?", turns[2].Text)
	assert.Equal(t, domain.RoleModel, turns[3].Role)

	// The second call saw the first exchange as context.
	require.Len(t, mock.LastHistory, 2)
	assert.Equal(t, "Hello", mock.LastHistory[0].Text)
}

func TestRespond_HistoryIsPerUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(llm.NewMockGenerator())
	ctx := context.Background()

	svc.Respond(ctx, "alice", "secret plans", nil)

	assert.Empty(t, svc.History("bob"))
	assert.Len(t, svc.History("alice"), 2)
}

func TestRespond_ImageIsOneShot(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockGenerator()
	mock.MultimodalReply = "# Heading\n\nThat is a cat."
	svc := newTestService(mock)

	res := svc.Respond(context.Background(), "u1", "what is this?", &chat.Image{
		Data:     []byte{0x89, 0x50, 0x4e, 0x47},
		MIMEType: "image/png",
	})

	require.True(t, res.Success)
	assert.Equal(t, 1, mock.MultimodalCalls)
	assert.Equal(t, 0, mock.TextCalls)
	assert.Equal(t, "image/png", mock.LastMIMEType)

	// Rendered through the markdown transform, not returned raw.
	assert.Contains(t, res.Response, "<h1>")
	assert.Contains(t, res.Response, "That is a cat.")

	// Image turns never join the transcript.
	assert.Empty(t, svc.History("u1"))
}

func TestRespond_ProviderFailureIsDegradedResult(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockGenerator()
	mock.Err = domain.ErrProviderTimeout
	svc := newTestService(mock)

	res := svc.Respond(context.Background(), "u1", "Hello", nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Response, "took too long")

	// A failed exchange leaves no partial turn behind.
	assert.Empty(t, svc.History("u1"))
}

func TestRespond_NotConfiguredShortCircuits(t *testing.T) {
	t.Parallel()

	svc := chat.NewService(nil, chat.NewHistory(40), 5*time.Second)

	res := svc.Respond(context.Background(), "u1", "Hello", nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Response, "not properly configured")
	assert.Empty(t, svc.History("u1"))
}

func TestRespond_HistoryIsBounded(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockGenerator()
	svc := chat.NewService(mock, chat.NewHistory(6), 5*time.Second)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		res := svc.Respond(ctx, "u1", strings.Repeat("x", i+1), nil)
		require.True(t, res.Success)
	}

	turns := svc.History("u1")
	assert.Len(t, turns, 6)
	// Oldest turns were dropped; the newest exchange is last.
	assert.Equal(t, strings.Repeat("x", 10), turns[4].Text)
}

func TestRespond_ConcurrentSameUserTurnsSerialize(t *testing.T) {
	t.Parallel()

	mock := llm.NewMockGenerator()
	svc := newTestService(mock)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := svc.Respond(ctx, "u1", "ping", nil)
			assert.True(t, res.Success)
		}()
	}
	wg.Wait()

	turns := svc.History("u1")
	require.Len(t, turns, 40)
	for i, turn := range turns {
		if i%2 == 0 {
			assert.Equal(t, domain.RoleUser, turn.Role, "turn %d", i)
		} else {
			assert.Equal(t, domain.RoleModel, turn.Role, "turn %d", i)
		}
	}
}
