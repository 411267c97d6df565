package tts

import (
	"context"
	"log/slog"

	"github.com/ariel-frischer/changecast/internal/cache"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// AudioCache is the audio half of the content-hash cache.
type AudioCache interface {
	GetAudio(ctx context.Context, fingerprint, discriminator string) ([]byte, bool, error)
	SetAudio(ctx context.Context, fingerprint, discriminator string, data []byte) error
}

// Service generates speech through a cache.
type Service struct {
	synth  Synthesizer
	cache  AudioCache
	logger *slog.Logger
}

// NewService returns a cache-first speech service.
func NewService(synth Synthesizer, audioCache AudioCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{synth: synth, cache: audioCache, logger: logger}
}

// Generate returns audio for text, synthesizing and caching it on a miss.
// A failed cache write is logged and the audio is still returned.
func (s *Service) Generate(ctx context.Context, text, voice, language string) ([]byte, error) {
	fingerprint := cache.Hash(text)
	discriminator := cache.AudioDiscriminator(voice, language)

	data, ok, err := s.cache.GetAudio(ctx, fingerprint, discriminator)
	if err != nil {
		s.logger.Warn("audio cache lookup failed",
			logging.String("fingerprint", fingerprint),
			logging.Error(err),
		)
	}
	if ok {
		s.logger.Debug("audio cache hit", logging.String("key", discriminator))
		return data, nil
	}

	data, err = s.synth.Synthesize(ctx, text, voice, language)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetAudio(ctx, fingerprint, discriminator, data); err != nil {
		s.logger.Warn("audio cache write failed",
			logging.String("fingerprint", fingerprint),
			logging.Error(err),
		)
	}
	return data, nil
}

// Cached returns previously generated audio without synthesizing.
func (s *Service) Cached(ctx context.Context, fingerprint, voice, language string) ([]byte, bool, error) {
	return s.cache.GetAudio(ctx, fingerprint, cache.AudioDiscriminator(voice, language))
}
