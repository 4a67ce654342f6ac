package assistant

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/googleapis/gax-go/v2"
)

type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// GoogleSpeechRecognizer transcribes LINEAR16 audio with Cloud Speech-to-Text
type GoogleSpeechRecognizer struct {
	client     recognizeClient
	sampleRate int32
	language   string
}

var _ ports.SpeechRecognizer = (*GoogleSpeechRecognizer)(nil)

// NewGoogleSpeechRecognizer constructs the speech client once; Close releases it
func NewGoogleSpeechRecognizer(ctx context.Context, credentials string, sampleRate int32, language string) (*GoogleSpeechRecognizer, error) {
	c, err := speech.NewClient(ctx, clientOptions(credentials)...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return newGoogleSpeechRecognizer(c, sampleRate, language), nil
}

func newGoogleSpeechRecognizer(client recognizeClient, sampleRate int32, language string) *GoogleSpeechRecognizer {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleSpeechRecognizer{client: client, sampleRate: sampleRate, language: language}
}

// Recognize returns the top alternative of the first result, "" when nothing was heard
func (r *GoogleSpeechRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	resp, err := r.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: r.sampleRate,
			LanguageCode:    r.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}

	results := resp.GetResults()
	if len(results) == 0 {
		return "", nil
	}
	alternatives := results[0].GetAlternatives()
	if len(alternatives) == 0 {
		return "", nil
	}
	return alternatives[0].GetTranscript(), nil
}

func (r *GoogleSpeechRecognizer) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
