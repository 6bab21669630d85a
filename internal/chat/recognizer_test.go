package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/equipment-booking/internal/llm"
	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
)

type stubLLM struct {
	content string
	err     error
	calls   int
	last    *llm.CompletionRequest
}

func (s *stubLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *stubLLM) Name() string { return "stub" }

func TestKeywordRecognizer(t *testing.T) {
	tests := []struct {
		text string
		want model.Command
	}{
		{"予約", model.CommandReserve},
		{"予約する", model.CommandReserve},
		{" Reserve ", model.CommandReserve},
		{"予約確認", model.CommandList},
		{"確認", model.CommandList},
		{"キャンセル", model.CommandCancel},
		{"予約キャンセル", model.CommandCancel},
		{"ヘルプ", model.CommandHelp},
		{"HELP", model.CommandHelp},
		{"5", model.CommandNone},
		{"予約したい", model.CommandNone},
		{"", model.CommandNone},
	}

	var r KeywordRecognizer
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Recognize(context.Background(), tt.text, model.Idle{}))
		})
	}
}

func TestLLMRecognizerPrefersKeywords(t *testing.T) {
	client := &stubLLM{content: "cancel"}
	r := NewLLMRecognizer(client, 0, logger.NewNop())

	assert.Equal(t, model.CommandReserve, r.Recognize(context.Background(), "予約", model.Idle{}))
	assert.Zero(t, client.calls)
}

func TestLLMRecognizerSkipsStepInput(t *testing.T) {
	client := &stubLLM{content: "reserve"}
	r := NewLLMRecognizer(client, 0, logger.NewNop())

	for _, text := range []string{"7", "2024/12/25 14:00", "12-25 9:00", "-3"} {
		assert.Equal(t, model.CommandNone, r.Recognize(context.Background(), text, model.Idle{}), text)
	}
	assert.Zero(t, client.calls)
}

func TestLLMRecognizerClassifiesFreeText(t *testing.T) {
	client := &stubLLM{content: " Cancel.\n"}
	r := NewLLMRecognizer(client, 0, logger.NewNop())

	assert.Equal(t, model.CommandCancel, r.Recognize(context.Background(), "予約を取り消したいです", model.Idle{}))
	assert.Equal(t, 1, client.calls)
}

func TestLLMRecognizerDegradesToNone(t *testing.T) {
	failing := &stubLLM{err: errors.New("upstream unavailable")}
	r := NewLLMRecognizer(failing, 0, logger.NewNop())
	assert.Equal(t, model.CommandNone, r.Recognize(context.Background(), "book something please", model.Idle{}))

	chatty := &stubLLM{content: "I think the user wants to reserve"}
	r = NewLLMRecognizer(chatty, 0, logger.NewNop())
	assert.Equal(t, model.CommandNone, r.Recognize(context.Background(), "book something please", model.Idle{}))
}

func TestKeywordRecognizerMidFlow(t *testing.T) {
	var r KeywordRecognizer
	step := model.AwaitingStart{EquipmentID: 5}

	assert.Equal(t, model.CommandCancel, r.Recognize(context.Background(), "キャンセル", step))
	assert.Equal(t, model.CommandNone, r.Recognize(context.Background(), "12月25日 14時から予約", step))
}

func TestLLMRecognizerOnlyClassifiesWhenIdle(t *testing.T) {
	client := &stubLLM{content: "reserve"}
	r := NewLLMRecognizer(client, 0, logger.NewNop())
	ctx := context.Background()

	steps := []model.Step{
		model.AwaitingEquipment{},
		model.AwaitingStart{EquipmentID: 5},
		model.AwaitingEnd{EquipmentID: 5},
		model.AwaitingCancelTarget{},
	}
	for _, step := range steps {
		t.Run(step.Name(), func(t *testing.T) {
			assert.Equal(t, model.CommandNone, r.Recognize(ctx, "12月25日 14時から予約", step))
			assert.Equal(t, model.CommandHelp, r.Recognize(ctx, "ヘルプ", step))
		})
	}
	assert.Zero(t, client.calls)

	assert.Equal(t, model.CommandReserve, r.Recognize(ctx, "12月25日 14時から予約", model.Idle{}))
	assert.Equal(t, 1, client.calls)
}

func TestLLMRecognizerSendsSystemPrompt(t *testing.T) {
	client := &stubLLM{content: "list"}
	r := NewLLMRecognizer(client, 0, logger.NewNop())

	assert.Equal(t, model.CommandList, r.Recognize(context.Background(), "what is booked?", model.Idle{}))
	require.NotNil(t, client.last)
	assert.Contains(t, client.last.System, "equipment reservation")
	require.Len(t, client.last.Messages, 1)
	assert.Equal(t, "what is booked?", client.last.Messages[0].Content)
}
