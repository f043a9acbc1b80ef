package anthropic_test

import (
	"context"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	anthropicAdapter "github.com/kneez/intake/internal/adapters/anthropic"
	"github.com/kneez/intake/pkg/domain"
)

type fakeMessager struct {
	response string
	err      error
	calls    int
	lastReq  sdk.MessageNewParams
}

func (f *fakeMessager) New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	f.calls++
	f.lastReq = params
	if f.err != nil {
		return nil, f.err
	}
	return &sdk.Message{
		Content: []sdk.ContentBlockUnion{{Type: "text", Text: f.response}},
	}, nil
}

func newTestClient(response string) (*anthropicAdapter.Client, *fakeMessager) {
	fake := &fakeMessager{response: response}
	return anthropicAdapter.NewFromMessager(fake, ""), fake
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a valid intent", func(t *testing.T) {
		client, fake := newTestClient(`{"intent":"acute_relief"}`)
		intent, err := client.Classify(ctx, "my knee hurts when I run")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentAcuteRelief, intent)
		assert.Equal(t, 1, fake.calls)
	})

	t.Run("strips code fences around the payload", func(t *testing.T) {
		client, _ := newTestClient("```json\n{\"intent\":\"red_flag\"}\n```")
		intent, err := client.Classify(ctx, "knee popped, can't walk")
		require.NoError(t, err)
		assert.Equal(t, domain.IntentRedFlag, intent)
	})

	t.Run("intent outside the taxonomy is an upstream error with the raw payload", func(t *testing.T) {
		client, _ := newTestClient(`{"intent":"buy_shoes"}`)
		_, err := client.Classify(ctx, "hello")
		require.Error(t, err)
		assert.True(t, domain.IsUpstream(err))

		var ue *domain.UpstreamError
		require.ErrorAs(t, err, &ue)
		assert.Contains(t, ue.RawPayload, "buy_shoes")
	})

	t.Run("malformed JSON is an upstream error", func(t *testing.T) {
		client, _ := newTestClient("I think the intent is acute relief")
		_, err := client.Classify(ctx, "hello")
		assert.True(t, domain.IsUpstream(err))
	})

	t.Run("transport failure is an upstream error", func(t *testing.T) {
		fake := &fakeMessager{err: errors.New("connection refused")}
		client := anthropicAdapter.NewFromMessager(fake, "")
		_, err := client.Classify(ctx, "hello")
		assert.True(t, domain.IsUpstream(err))
	})
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("parses and normalizes the snapshot", func(t *testing.T) {
		client, _ := newTestClient(`{
			"symptom_side": "left",
			"symptom_description": ["sharp pain", "sharp pain"],
			"symptom_location": "unspecified",
			"trigger_activity": ["running"],
			"missing_fields": []
		}`)
		got, err := client.Extract(ctx, "sharp pain left knee when running", nil)
		require.NoError(t, err)

		assert.Equal(t, domain.SideLeft, got.Side)
		assert.Equal(t, []string{"sharp pain"}, got.Description)
		assert.Equal(t, "", got.Location)
		assert.True(t, got.MissingField(domain.FieldLocation))
		assert.False(t, got.MissingField(domain.FieldSide))
	})

	t.Run("previous snapshot is sent as context", func(t *testing.T) {
		client, fake := newTestClient(`{"symptom_side":"unsure"}`)
		prev := domain.NormalizeEntities(domain.SymptomEntities{Side: domain.SideRight})
		_, err := client.Extract(ctx, "it still hurts", &prev)
		require.NoError(t, err)

		require.Len(t, fake.lastReq.Messages, 1)
	})

	t.Run("malformed output is an upstream error", func(t *testing.T) {
		client, _ := newTestClient("not json at all")
		_, err := client.Extract(ctx, "hello", nil)
		assert.True(t, domain.IsUpstream(err))
	})
}

func TestReply(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the text and forwards history", func(t *testing.T) {
		client, fake := newTestClient("The meniscus cushions the joint.")
		history := []domain.ChatTurn{
			{From: "user", Text: "hi"},
			{From: "bot", Text: "hello"},
		}
		reply, err := client.Reply(ctx, "what does the meniscus do?", history)
		require.NoError(t, err)
		assert.Equal(t, "The meniscus cushions the joint.", reply)
		assert.Len(t, fake.lastReq.Messages, 3)
	})

	t.Run("empty reply is an upstream error", func(t *testing.T) {
		client, _ := newTestClient("   ")
		_, err := client.Reply(ctx, "hello", nil)
		assert.True(t, domain.IsUpstream(err))
	})
}

func TestHealthy(t *testing.T) {
	client, _ := newTestClient("{}")
	assert.True(t, client.Healthy(context.Background()))
}
