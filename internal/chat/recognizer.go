package chat

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/llm"
	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
	"github.com/capitalize-ai/equipment-booking/pkg/metrics"
)

var keywords = map[string]model.Command{
	"予約":      model.CommandReserve,
	"予約する":    model.CommandReserve,
	"reserve": model.CommandReserve,
	"予約確認":    model.CommandList,
	"確認":      model.CommandList,
	"list":    model.CommandList,
	"キャンセル":   model.CommandCancel,
	"予約キャンセル": model.CommandCancel,
	"cancel":  model.CommandCancel,
	"ヘルプ":     model.CommandHelp,
	"help":    model.CommandHelp,
}

// KeywordRecognizer matches whole messages against a fixed keyword table.
type KeywordRecognizer struct{}

// Recognize returns the command whose keyword equals text, ignoring case and
// surrounding whitespace. Keywords are commands in every step.
func (KeywordRecognizer) Recognize(_ context.Context, text string, _ model.Step) model.Command {
	return keywords[strings.ToLower(strings.TrimSpace(text))]
}

// stepInput matches numbers and date/time entries, which are never commands.
var stepInput = regexp.MustCompile(`^[0-9\s/:\-+]*$`)

const maxClassifyLength = 200

const classifyPrompt = `You route messages for an equipment reservation chat bot.
Messages may be Japanese or English. Reply with exactly one word:
reserve - the user wants to book equipment
cancel - the user wants to cancel a booking
list - the user wants to see current bookings
help - the user asks how to use the bot
none - anything else`

// LLMRecognizer tries the keyword table first and asks an LLM to classify free
// text that misses it. The LLM is only asked while the sender is idle; mid-flow
// free text is always step input. Any LLM failure yields model.CommandNone.
type LLMRecognizer struct {
	keywords KeywordRecognizer
	client   llm.Client
	timeout  time.Duration
	logger   *logger.Logger
}

// NewLLMRecognizer creates a recognizer backed by client.
func NewLLMRecognizer(client llm.Client, timeout time.Duration, log *logger.Logger) *LLMRecognizer {
	return &LLMRecognizer{
		client:  client,
		timeout: timeout,
		logger:  log,
	}
}

// Recognize returns the command for text sent while in step.
func (r *LLMRecognizer) Recognize(ctx context.Context, text string, step model.Step) model.Command {
	if cmd := r.keywords.Recognize(ctx, text, step); cmd != model.CommandNone {
		return cmd
	}
	if !isIdle(step) {
		return model.CommandNone
	}
	if stepInput.MatchString(text) || len(text) > maxClassifyLength {
		return model.CommandNone
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.client.Complete(ctx, &llm.CompletionRequest{
		System: classifyPrompt,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: text},
		},
		MaxTokens: 4,
	})
	if err != nil {
		metrics.LLMClassifyDuration.WithLabelValues(r.client.Name(), "error").Observe(time.Since(start).Seconds())
		r.logger.Warn("command classification failed", zap.String("provider", r.client.Name()), zap.Error(err))
		return model.CommandNone
	}
	metrics.LLMClassifyDuration.WithLabelValues(r.client.Name(), "ok").Observe(time.Since(start).Seconds())

	return parseClassification(resp.Content)
}

func isIdle(step model.Step) bool {
	switch step.(type) {
	case nil, model.Idle:
		return true
	default:
		return false
	}
}

func parseClassification(content string) model.Command {
	word := strings.ToLower(strings.Trim(strings.TrimSpace(content), ".!\"'`"))
	switch model.Command(word) {
	case model.CommandReserve, model.CommandCancel, model.CommandList, model.CommandHelp:
		return model.Command(word)
	default:
		return model.CommandNone
	}
}
