package assistant

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/googleapis/gax-go/v2"
)

type synthesizeClient interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GoogleSpeechSynthesizer renders text with an en-US female voice as LINEAR16
type GoogleSpeechSynthesizer struct {
	client synthesizeClient
}

var _ ports.SpeechSynthesizer = (*GoogleSpeechSynthesizer)(nil)

func NewGoogleSpeechSynthesizer(ctx context.Context, credentials string) (*GoogleSpeechSynthesizer, error) {
	c, err := texttospeech.NewClient(ctx, clientOptions(credentials)...)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	return &GoogleSpeechSynthesizer{client: c}, nil
}

func (s *GoogleSpeechSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "en-US",
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.GetAudioContent(), nil
}

func (s *GoogleSpeechSynthesizer) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
