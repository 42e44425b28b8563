package guardrail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/hupe1980/agentjury/internal/resilience"
	"github.com/hupe1980/agentjury/logging"
)

// DefaultMaxChars is the number of runes submitted to the classifier.
const DefaultMaxChars = 4000

// ErrNoClassifier is reported when a Moderator has no classifier configured.
var ErrNoClassifier = errors.New("no moderation classifier configured")

// Verdict is the tri-state outcome of a moderation call.
type Verdict int

const (
	VerdictClear Verdict = iota
	VerdictFlagged
	VerdictUnavailable
)

func (v Verdict) String() string {
	switch v {
	case VerdictClear:
		return "clear"
	case VerdictFlagged:
		return "flagged"
	case VerdictUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// Result is a moderation verdict with the categories that triggered it.
type Result struct {
	Verdict    Verdict
	Categories []string
}

// Classifier is an external moderation capability.
type Classifier interface {
	Classify(ctx context.Context, text string) (flagged bool, categories []string, err error)
}

// ClassifierFunc adapts a function to a Classifier.
type ClassifierFunc func(ctx context.Context, text string) (bool, []string, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, text string) (bool, []string, error) {
	return f(ctx, text)
}

// ModerationOptions configures a Moderator.
type ModerationOptions struct {
	// MaxChars truncates submitted text, in runes.
	MaxChars int
	// CacheTTL is how long clear and flagged verdicts are reused. Zero
	// disables caching.
	CacheTTL time.Duration
	// CacheMaxCost is the maximum number of cached verdicts.
	CacheMaxCost int64
	// BreakerMaxFailures consecutive failures open the circuit.
	BreakerMaxFailures int
	// BreakerTimeout is how long an open circuit rejects calls.
	BreakerTimeout time.Duration
	Logger         logging.Logger
}

// Moderator wraps a Classifier with truncation, a verdict cache and a
// circuit breaker. It never returns an error: every failure surfaces as
// VerdictUnavailable.
type Moderator struct {
	classifier Classifier
	cache      *ristretto.Cache[string, Result]
	breaker    *resilience.Breaker
	opts       ModerationOptions
}

// NewModerator creates a Moderator. A nil classifier yields a moderator that
// always reports VerdictUnavailable.
func NewModerator(c Classifier, optFns ...func(o *ModerationOptions)) (*Moderator, error) {
	opts := ModerationOptions{
		MaxChars:           DefaultMaxChars,
		CacheTTL:           10 * time.Minute,
		CacheMaxCost:       10_000,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	m := &Moderator{
		classifier: c,
		breaker:    resilience.NewBreaker(opts.BreakerMaxFailures, opts.BreakerTimeout),
		opts:       opts,
	}

	if opts.CacheTTL > 0 && opts.CacheMaxCost > 0 {
		cache, err := ristretto.NewCache(&ristretto.Config[string, Result]{
			NumCounters:        opts.CacheMaxCost * 10,
			MaxCost:            opts.CacheMaxCost,
			BufferItems:        64,
			IgnoreInternalCost: true,
		})
		if err != nil {
			return nil, err
		}
		m.cache = cache
	}
	return m, nil
}

// Moderate classifies text. label identifies the caller in logs.
func (m *Moderator) Moderate(ctx context.Context, label, text string) Result {
	input := truncateRunes(strings.TrimSpace(text), m.opts.MaxChars)
	key := cacheKey(input)

	if m.cache != nil {
		if r, ok := m.cache.Get(key); ok {
			return r
		}
	}

	if m.classifier == nil {
		m.opts.Logger.Warn("safety.moderation_failed", "label", label, "error", ErrNoClassifier.Error())
		return Result{Verdict: VerdictUnavailable}
	}

	var (
		flagged    bool
		categories []string
	)
	err := m.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		flagged, categories, err = m.classifier.Classify(ctx, input)
		return err
	})
	if err != nil {
		m.opts.Logger.Warn("safety.moderation_failed",
			"label", label,
			"error", err.Error(),
			"breaker", m.breaker.State().String(),
		)
		return Result{Verdict: VerdictUnavailable}
	}

	r := Result{Verdict: VerdictClear}
	if flagged {
		r = Result{Verdict: VerdictFlagged, Categories: categories}
		m.opts.Logger.Warn("safety.moderation_flagged", "label", label, "categories", categories)
	}
	if m.cache != nil {
		m.cache.SetWithTTL(key, r, 1, m.opts.CacheTTL)
	}
	return r
}

// Close releases the verdict cache.
func (m *Moderator) Close() {
	if m.cache != nil {
		m.cache.Close()
	}
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

func cacheKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
