package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string][]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: make(map[string][]string)}
}

func (s *memoryStore) History(_ context.Context, sessionID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sessions[sessionID]...), nil
}

func (s *memoryStore) Append(_ context.Context, sessionID string, lines ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = append(s.sessions[sessionID], lines...)
	return nil
}

type fakeGenerator struct {
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

type fakeSpeech struct {
	text  string
	audio []byte
	calls int
}

func (f *fakeSpeech) Recognize(_ context.Context, _ []byte) (string, error) {
	f.calls++
	return f.text, nil
}

func (f *fakeSpeech) Synthesize(_ context.Context, _ string) ([]byte, error) {
	f.calls++
	return f.audio, nil
}

func TestAssistantService_Chat_PerSessionTranscript(t *testing.T) {
	store := newMemoryStore()
	gen := &fakeGenerator{reply: " Hello dear. "}
	svc := services.NewAssistantService(store, gen, nil, nil, nil)

	reply, err := svc.Chat(context.Background(), "s1", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello dear.", reply)

	_, err = svc.Chat(context.Background(), "s2", "Who are you?")
	require.NoError(t, err)

	assert.Equal(t, []string{"User: Hi", "AI: Hello dear."}, store.sessions["s1"])
	assert.Equal(t, []string{"User: Who are you?", "AI: Hello dear."}, store.sessions["s2"])

	// the second session's prompt does not see the first session
	assert.NotContains(t, gen.prompts[1], "User: Hi")
	assert.True(t, strings.HasPrefix(gen.prompts[0], "You're a gentle, supportive chatbot"))
	assert.True(t, strings.HasSuffix(gen.prompts[0], "User: Hi\nAI:"))
}

func TestAssistantService_Chat_DefaultSession(t *testing.T) {
	store := newMemoryStore()
	svc := services.NewAssistantService(store, &fakeGenerator{reply: "ok"}, nil, nil, nil)

	_, err := svc.Chat(context.Background(), "", "Hi")
	require.NoError(t, err)
	assert.Len(t, store.sessions[services.DefaultSessionID], 2)
}

func TestAssistantService_Chat_BackendFailureKeepsTranscriptClean(t *testing.T) {
	store := newMemoryStore()
	svc := services.NewAssistantService(store, &fakeGenerator{err: errors.New("quota exceeded")}, nil, nil, nil)

	_, err := svc.Chat(context.Background(), "s1", "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, store.sessions["s1"])
}

func TestAssistantService_Chat_EmptyMessage(t *testing.T) {
	svc := services.NewAssistantService(newMemoryStore(), &fakeGenerator{}, nil, nil, nil)
	_, err := svc.Chat(context.Background(), "s1", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAssistantService_Transcribe_EmptyAudio(t *testing.T) {
	speech := &fakeSpeech{text: "hello"}
	svc := services.NewAssistantService(newMemoryStore(), nil, speech, speech, nil)

	text, err := svc.Transcribe(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", text)
	assert.Zero(t, speech.calls)

	text, err = svc.Transcribe(context.Background(), []byte{0, 1})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestAssistantService_Transcribe_EmptyAudioWithoutRecognizer(t *testing.T) {
	svc := services.NewAssistantService(newMemoryStore(), nil, nil, nil, nil)

	text, err := svc.Transcribe(context.Background(), []byte{})
	require.NoError(t, err)
	assert.Equal(t, "", text)

	_, err = svc.Transcribe(context.Background(), []byte{0, 1})
	assert.Error(t, err)
}

func TestAssistantService_Speak(t *testing.T) {
	speech := &fakeSpeech{audio: []byte("RIFF")}
	svc := services.NewAssistantService(newMemoryStore(), nil, speech, speech, nil)

	_, err := svc.Speak(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	audio, err := svc.Speak(context.Background(), "Good morning")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), audio)
}

func TestBuildPrompt(t *testing.T) {
	prompt := services.BuildPrompt([]string{"User: Hi", "AI: Hello"}, "User: How are you?")
	assert.Contains(t, prompt, "Conversation so far:\nUser: Hi\nAI: Hello\nUser: How are you?\nAI:")
}
