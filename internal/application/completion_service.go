package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"virtual-patient/internal/domain"
	"virtual-patient/internal/ports/output"
	"virtual-patient/pkg/metrics"

	"github.com/sirupsen/logrus"
)

// Generation parameters per call kind
const (
	conversationTemperature float32 = 0.6
	conversationMaxTokens           = 1000
	palpationTemperature    float32 = 0.6
	palpationMaxTokens              = 500
	labelTemperature        float32 = 1.0
	labelMaxTokens                  = 15
	maxLabelLength                  = 60
)

// CompletionOptions struct - tunables for the conversational entry point.
// Zero values select the package defaults.
type CompletionOptions struct {
	Temperature float32
	MaxTokens   int
}

// CompletionService struct - Turns raw completion text into validated replies.
// None of its methods return errors: failures degrade to canned replies.
type CompletionService struct {
	client      output.CompletionClient
	temperature float32
	maxTokens   int
}

// NewCompletionService func - Creates new completion service
func NewCompletionService(client output.CompletionClient, opts CompletionOptions) *CompletionService {
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = conversationTemperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = conversationMaxTokens
	}
	return &CompletionService{
		client:      client,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// replyMessage mirrors one message object in the model reply
type replyMessage struct {
	Text             string `json:"text"`
	Animation        string `json:"animation"`
	FacialExpression string `json:"facialExpression"`
}

// Complete sends the conversation prompt and the doctor's message.
// Any failure yields domain.FallbackReply().
func (s *CompletionService) Complete(ctx context.Context, systemPrompt, userMessage string) domain.PatientReply {
	temperature := s.temperature
	maxTokens := s.maxTokens

	resp, err := s.client.ChatCompletion(ctx, domain.ChatCompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: domain.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		logrus.Errorf("Completion call failed, using fallback reply: %v", err)
		metrics.IncCompletionFallback("chat")
		return domain.FallbackReply()
	}

	metrics.ObserveTokens("chat", resp.PromptTokens, resp.CompletionTokens)

	reply, err := ParsePatientReply(resp.Content)
	if err != nil {
		logrus.Warnf("Completion reply rejected, using fallback reply: %v", err)
		metrics.IncCompletionFallback("chat")
		return domain.FallbackReply()
	}

	return reply
}

// ParsePatientReply validates raw model output against the reply schema.
// Accepted shapes: {"messages":[...]}, {"messages":{...}} and a bare [...] array.
// Every message needs non-empty text; unknown tags are normalized.
func ParsePatientReply(content string) (domain.PatientReply, error) {
	raw := bytes.TrimSpace([]byte(stripCodeFence(content)))
	if len(raw) == 0 {
		return domain.PatientReply{}, fmt.Errorf("%w: empty content", domain.ErrInvalidReply)
	}

	var items []replyMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &items); err != nil {
			return domain.PatientReply{}, fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
		}
	case '{':
		var envelope struct {
			Messages json.RawMessage `json:"messages"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return domain.PatientReply{}, fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
		}
		messages := bytes.TrimSpace(envelope.Messages)
		if len(messages) == 0 || bytes.Equal(messages, []byte("null")) {
			return domain.PatientReply{}, fmt.Errorf("%w: missing messages field", domain.ErrInvalidReply)
		}
		if messages[0] == '{' {
			var single replyMessage
			if err := json.Unmarshal(messages, &single); err != nil {
				return domain.PatientReply{}, fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
			}
			items = []replyMessage{single}
		} else if err := json.Unmarshal(messages, &items); err != nil {
			return domain.PatientReply{}, fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
		}
	default:
		return domain.PatientReply{}, fmt.Errorf("%w: content is not JSON", domain.ErrInvalidReply)
	}

	if len(items) == 0 {
		return domain.PatientReply{}, fmt.Errorf("%w: no messages", domain.ErrInvalidReply)
	}

	reply := domain.PatientReply{Messages: make([]domain.OutgoingMessage, 0, len(items))}
	for i, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			return domain.PatientReply{}, fmt.Errorf("%w: message %d has no text", domain.ErrInvalidReply, i)
		}
		msg := domain.OutgoingMessage{
			Text:             text,
			Animation:        domain.Animation(strings.TrimSpace(item.Animation)),
			FacialExpression: domain.FacialExpression(strings.TrimSpace(item.FacialExpression)),
		}
		msg.Normalize()
		reply.Messages = append(reply.Messages, msg)
	}

	return reply, nil
}

// Palpate sends the palpation prompt for region.
// Any failure yields domain.FallbackPalpationFinding().
func (s *CompletionService) Palpate(ctx context.Context, systemPrompt, region string) domain.PalpationFinding {
	temperature := palpationTemperature
	maxTokens := palpationMaxTokens

	resp, err := s.client.ChatCompletion(ctx, domain.ChatCompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: domain.ChatMessageRoleUser, Content: PalpationUserMessage(region)},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		logrus.Errorf("Palpation completion failed, using fallback finding: %v", err)
		metrics.IncCompletionFallback("palpation")
		return domain.FallbackPalpationFinding()
	}

	metrics.ObserveTokens("palpation", resp.PromptTokens, resp.CompletionTokens)

	finding, err := ParsePalpationFinding(resp.Content)
	if err != nil {
		logrus.Warnf("Palpation reply rejected, using fallback finding: %v", err)
		metrics.IncCompletionFallback("palpation")
		return domain.FallbackPalpationFinding()
	}

	return finding
}

// ParsePalpationFinding validates raw model output as a palpation finding.
// Both fields are required strings.
func ParsePalpationFinding(content string) (domain.PalpationFinding, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return domain.PalpationFinding{}, fmt.Errorf("%w: %v", domain.ErrInvalidReply, err)
	}

	var finding domain.PalpationFinding
	for field, dst := range map[string]*string{
		"doctorFinding":   &finding.DoctorFinding,
		"patientResponse": &finding.PatientResponse,
	} {
		value, ok := payload[field]
		if !ok {
			return domain.PalpationFinding{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidReply, field)
		}
		if err := json.Unmarshal(value, dst); err != nil {
			return domain.PalpationFinding{}, fmt.Errorf("%w: %s is not a string", domain.ErrInvalidReply, field)
		}
		*dst = strings.TrimSpace(*dst)
		if *dst == "" {
			return domain.PalpationFinding{}, fmt.Errorf("%w: empty %s", domain.ErrInvalidReply, field)
		}
	}

	return finding, nil
}

// GenerateLabel runs a short, high-temperature one-shot generation.
// Failure or empty output returns fallback.
func (s *CompletionService) GenerateLabel(ctx context.Context, instruction, fallback string) string {
	temperature := labelTemperature
	maxTokens := labelMaxTokens

	resp, err := s.client.ChatCompletion(ctx, domain.ChatCompletionRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.ChatMessageRoleSystem, Content: instruction},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logrus.Warnf("Label generation failed, using %q: %v", fallback, err)
		metrics.IncCompletionFallback("label")
		return fallback
	}

	metrics.ObserveTokens("label", resp.PromptTokens, resp.CompletionTokens)

	label := cleanLabel(resp.Content)
	if label == "" {
		logrus.Warnf("Label generation returned nothing usable, using %q", fallback)
		metrics.IncCompletionFallback("label")
		return fallback
	}
	return label
}

// cleanLabel keeps the first line, strips quotes and trailing punctuation, and caps the length
func cleanLabel(content string) string {
	label := strings.TrimSpace(content)
	if idx := strings.IndexAny(label, "\r\n"); idx >= 0 {
		label = label[:idx]
	}
	label = strings.Trim(label, " \t\"'`*.")
	if utf8.RuneCountInString(label) > maxLabelLength {
		label = strings.TrimSpace(string([]rune(label)[:maxLabelLength]))
	}
	return label
}

// stripCodeFence removes a surrounding ```json fence some models add despite JSON mode
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
