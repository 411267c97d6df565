// Package tts turns changelog text into speech and caches the resulting
// audio by content fingerprint, voice and language.
package tts

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ariel-frischer/changecast/internal/gemini"
)

// Synthesizer produces WAV audio for text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, error)
}

// ErrNoAudio is returned when the provider response carries no audio.
var ErrNoAudio = errors.New("speech response contained no audio")

// GeminiSynthesizer synthesizes speech with a Gemini TTS model.
type GeminiSynthesizer struct {
	client *gemini.Client
	model  string
}

// NewGeminiSynthesizer returns a synthesizer using model.
func NewGeminiSynthesizer(client *gemini.Client, model string) *GeminiSynthesizer {
	return &GeminiSynthesizer{client: client, model: model}
}

// Synthesize requests audio output in the given voice and wraps the returned
// PCM samples in a WAV container.
func (g *GeminiSynthesizer) Synthesize(ctx context.Context, text, voice, language string) ([]byte, error) {
	if !IsValidVoice(voice) {
		return nil, fmt.Errorf("unknown voice %q", voice)
	}
	lang, ok := LookupLanguage(language)
	if !ok {
		lang, _ = LookupLanguage(DefaultLanguage)
	}

	resp, err := g.client.Generate(ctx, g.model, gemini.Request{
		Contents: []gemini.Content{{
			Parts: []gemini.Part{{Text: lang.Prompt + "\n\n" + text}},
		}},
		GenerationConfig: &gemini.GenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &gemini.SpeechConfig{
				VoiceConfig: gemini.VoiceConfig{
					PrebuiltVoiceConfig: gemini.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	inline := resp.InlineData()
	if inline == nil || inline.Data == "" {
		return nil, ErrNoAudio
	}
	pcm, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, fmt.Errorf("decode speech audio: %w", err)
	}
	if strings.HasPrefix(inline.MimeType, "audio/wav") {
		return pcm, nil
	}
	return EncodeWAV(pcm, sampleRateFromMime(inline.MimeType), PCMChannels, PCMBitsPerSample), nil
}

// sampleRateFromMime reads the rate parameter of "audio/L16;codec=pcm;rate=24000".
func sampleRateFromMime(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && key == "rate" {
			if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return PCMSampleRate
}
