package dedup

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/jonathan/ado-testgen/internal/llm"
	"github.com/jonathan/ado-testgen/internal/logging"
	"github.com/jonathan/ado-testgen/internal/types"
)

// DefaultSemanticThreshold is the cosine similarity above which two cases match.
const DefaultSemanticThreshold = 0.88

// DefaultEmbedTimeout bounds a single embedding call.
const DefaultEmbedTimeout = 10 * time.Second

const embeddingCacheSize = 1024

// SemanticOptions configures a SemanticSignal.
type SemanticOptions struct {
	// Threshold is the cosine similarity above which two cases match.
	Threshold float64
	// Timeout bounds each embedding call.
	Timeout time.Duration
	Logger  *zap.Logger
}

// SemanticSignal compares embeddings of each case's title and step text.
// After the first embedding failure it stops calling the backend and never
// fires again.
type SemanticSignal struct {
	embedder llm.Embedder
	opts     SemanticOptions
	cache    *lru.Cache[string, []float32]
	failed   atomic.Bool
}

// NewSemanticSignal wraps embedder. Non-positive options take their defaults.
func NewSemanticSignal(embedder llm.Embedder, opts SemanticOptions) (*SemanticSignal, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultSemanticThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultEmbedTimeout
	}
	opts.Logger = logging.OrNop(opts.Logger)
	cache, err := lru.New[string, []float32](embeddingCacheSize)
	if err != nil {
		return nil, err
	}
	return &SemanticSignal{embedder: embedder, opts: opts, cache: cache}, nil
}

// Name implements Similarity.
func (s *SemanticSignal) Name() string { return "semantic" }

// Duplicate reports whether cosine similarity exceeds the threshold. An
// embedding failure means no match.
func (s *SemanticSignal) Duplicate(ctx context.Context, candidate, existing types.TestCase) bool {
	a, ok := s.embed(ctx, fullText(candidate))
	if !ok {
		return false
	}
	b, ok := s.embed(ctx, fullText(existing))
	if !ok {
		return false
	}
	return Cosine(a, b) > s.opts.Threshold
}

func (s *SemanticSignal) embed(ctx context.Context, text string) ([]float32, bool) {
	if v, ok := s.cache.Get(text); ok {
		return v, true
	}
	if s.failed.Load() {
		return nil, false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	v, err := s.embedder.Embed(callCtx, text)
	if err != nil {
		if s.failed.CompareAndSwap(false, true) {
			s.opts.Logger.Warn("embedding unavailable, semantic signal disabled for this run", zap.Error(err))
		}
		return nil, false
	}
	s.cache.Add(text, v)
	return v, true
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
