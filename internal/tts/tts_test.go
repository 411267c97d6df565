package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/changecast/internal/cache"
	"github.com/ariel-frischer/changecast/internal/gemini"
	"github.com/ariel-frischer/changecast/internal/store"
)

type countingSynth struct {
	calls int
	data  []byte
	err   error
}

func (c *countingSynth) Synthesize(_ context.Context, text, voice, language string) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return append([]byte(voice+"|"+language+"|"), c.data...), nil
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "tts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return cache.New(s)
}

func TestVoices(t *testing.T) {
	t.Parallel()

	assert.Len(t, VoiceNames(), 30)
	assert.True(t, IsValidVoice("Charon"))
	assert.True(t, IsValidVoice("Zubenelgenubi"))
	assert.False(t, IsValidVoice("charon"))
	assert.Len(t, VoiceOptions, 10)
	for _, opt := range VoiceOptions {
		assert.True(t, IsValidVoice(opt.Name), opt.Name)
	}
	assert.True(t, IsValidLanguage("cmn"))
	assert.False(t, IsValidLanguage("de"))
}

func TestWAV_EncodeAndDuration(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, PCMSampleRate*2*3/2) // 1.5s of 16-bit mono
	wav := EncodeWAV(pcm, PCMSampleRate, PCMChannels, PCMBitsPerSample)

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Len(t, wav, 44+len(pcm))

	d, err := WAVDuration(wav)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	_, err = WAVDuration([]byte("not audio at all"))
	assert.ErrorIs(t, err, ErrNotWAV)
}

func TestService_CacheFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	synth := &countingSynth{data: []byte("pcm")}
	svc := NewService(synth, newTestCache(t), nil)

	first, err := svc.Generate(ctx, "Version 1.0.0", "Charon", "en")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "Version 1.0.0", "Charon", "en")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, synth.calls)

	_, err = svc.Generate(ctx, "Version 1.0.0", "Puck", "en")
	require.NoError(t, err)
	_, err = svc.Generate(ctx, "Version 1.0.0", "Charon", "cmn")
	require.NoError(t, err)
	assert.Equal(t, 3, synth.calls)

	data, ok, err := svc.Cached(ctx, cache.Hash("Version 1.0.0"), "Charon", "")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, first, data)
}

func TestService_FailureNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	synth := &countingSynth{err: errors.New("quota")}
	svc := NewService(synth, newTestCache(t), nil)

	_, err := svc.Generate(ctx, "text", "Charon", "en")
	require.Error(t, err)

	_, ok, err := svc.Cached(ctx, cache.Hash("text"), "Charon", "en")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGeminiSynthesizer_WrapsPCM(t *testing.T) {
	t.Parallel()

	pcm := make([]byte, 4800)
	var req gemini.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{
						"inlineData": map[string]any{
							"mimeType": "audio/L16;codec=pcm;rate=24000",
							"data":     base64.StdEncoding.EncodeToString(pcm),
						},
					}},
				},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	synth := NewGeminiSynthesizer(gemini.NewClient(gemini.Config{APIKey: "k", BaseURL: srv.URL}), "tts-model")
	wav, err := synth.Synthesize(context.Background(), "hello", "Kore", "cmn")
	require.NoError(t, err)

	d, err := WAVDuration(wav)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, d)

	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, []string{"AUDIO"}, req.GenerationConfig.ResponseModalities)
	assert.Equal(t, "Kore", req.GenerationConfig.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	assert.Contains(t, req.Contents[0].Parts[0].Text, "请用清晰")
	assert.Contains(t, req.Contents[0].Parts[0].Text, "hello")
}

func TestGeminiSynthesizer_RejectsUnknownVoice(t *testing.T) {
	t.Parallel()

	synth := NewGeminiSynthesizer(gemini.NewClient(gemini.Config{APIKey: "k"}), "m")
	_, err := synth.Synthesize(context.Background(), "x", "Nobody", "en")
	assert.Error(t, err)
}

func TestSampleRateFromMime(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 16000, sampleRateFromMime("audio/L16;codec=pcm;rate=16000"))
	assert.Equal(t, PCMSampleRate, sampleRateFromMime("audio/L16"))
}
