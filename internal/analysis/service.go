package analysis

import (
	"context"
	"log/slog"

	"github.com/ariel-frischer/changecast/internal/cache"
	"github.com/ariel-frischer/changecast/internal/changelog"
	"github.com/ariel-frischer/changecast/internal/logging"
)

// Cache is the analysis half of the content-hash cache.
type Cache interface {
	GetAnalysis(ctx context.Context, fingerprint string, dst any) (bool, error)
	SetAnalysis(ctx context.Context, fingerprint string, result any) error
}

// Service analyzes changelogs through a cache.
type Service struct {
	analyzer Analyzer
	cache    Cache
	logger   *slog.Logger
}

// NewService returns a cache-first analysis service.
func NewService(analyzer Analyzer, c Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{analyzer: analyzer, cache: c, logger: logger}
}

// Analyze returns the analysis of the newest versions. The digest of the
// first three versions is hashed; a cached result for that hash is returned
// without calling the analyzer. Cache failures are logged and do not fail
// the call; analyzer failures return *AnalysisError.
func (s *Service) Analyze(ctx context.Context, versions []changelog.Version) (*Result, error) {
	digest := changelog.AnalysisDigest(versions, changelog.DigestVersions)
	fingerprint := cache.Hash(digest)

	var cached Result
	ok, err := s.cache.GetAnalysis(ctx, fingerprint, &cached)
	if err != nil {
		s.logger.Warn("analysis cache lookup failed",
			logging.String("fingerprint", fingerprint),
			logging.Error(err),
		)
	}
	if ok {
		s.logger.Debug("analysis cache hit", logging.String("fingerprint", fingerprint))
		return &cached, nil
	}

	result, err := s.analyzer.Analyze(ctx, digest)
	if err != nil {
		return nil, &AnalysisError{Fingerprint: fingerprint, Err: err}
	}

	if err := s.cache.SetAnalysis(ctx, fingerprint, result); err != nil {
		s.logger.Warn("analysis cache write failed",
			logging.String("fingerprint", fingerprint),
			logging.Error(err),
		)
	}
	return result, nil
}
