package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// DefaultSessionID is used when a chat request carries no session id
const DefaultSessionID = "default"

const assistantPersona = "You're a gentle, supportive chatbot for elderly users. " +
	"Respond warmly, kindly, and clearly in 1–2 short sentences.\n"

// AssistantService bridges chat, speech-to-text and text-to-speech to
// external backends. Every chat session keeps its own bounded transcript.
type AssistantService struct {
	store       ports.ConversationStore
	generator   ports.TextGenerator
	recognizer  ports.SpeechRecognizer
	synthesizer ports.SpeechSynthesizer
	logger      *zap.Logger
}

// NewAssistantService creates a new assistant service.
// Backends left nil answer with an error when used.
func NewAssistantService(
	store ports.ConversationStore,
	generator ports.TextGenerator,
	recognizer ports.SpeechRecognizer,
	synthesizer ports.SpeechSynthesizer,
	logger *zap.Logger,
) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{
		store:       store,
		generator:   generator,
		recognizer:  recognizer,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// BuildPrompt renders the persona, the retained transcript and the new user line
func BuildPrompt(history []string, userLine string) string {
	var b strings.Builder
	b.WriteString(assistantPersona)
	b.WriteString("Conversation so far:\n")
	for _, line := range history {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(userLine)
	b.WriteString("\nAI:")
	return b.String()
}

// Chat sends one user message within a session and returns the reply.
// The exchange is only appended to the transcript when the backend answers.
func (s *AssistantService) Chat(ctx context.Context, sessionID string, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if s.generator == nil {
		return "", fmt.Errorf("assistant backend is not configured")
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = DefaultSessionID
	}

	history, err := s.store.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	userLine := "User: " + message
	reply, err := s.generator.Generate(ctx, BuildPrompt(history, userLine))
	if err != nil {
		return "", fmt.Errorf("assistant backend failed: %w", err)
	}
	reply = strings.TrimSpace(reply)

	if err := s.store.Append(ctx, sessionID, userLine, "AI: "+reply); err != nil {
		// the reply is still useful, only the memory of it is lost
		s.logger.Warn("failed to store conversation turn", zap.String("session_id", sessionID), zap.Error(err))
	}
	return reply, nil
}

// Transcribe returns the recognized text, "" for silent or empty audio
func (s *AssistantService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	if s.recognizer == nil {
		return "", fmt.Errorf("speech recognizer is not configured")
	}
	text, err := s.recognizer.Recognize(ctx, audio)
	if err != nil {
		return "", fmt.Errorf("speech recognition failed: %w", err)
	}
	return text, nil
}

// Speak synthesizes text into LINEAR16 audio
func (s *AssistantService) Speak(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	if s.synthesizer == nil {
		return nil, fmt.Errorf("speech synthesizer is not configured")
	}
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	return audio, nil
}
