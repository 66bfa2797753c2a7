package risk

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ethanan544-art/sniper-engine/internal/domain"
)

// DefaultThreshold is the minimum score required to pass the gate.
const DefaultThreshold = 70

// DefaultAnalysisTimeout bounds a single oracle call.
const DefaultAnalysisTimeout = 20 * time.Second

// Oracle produces a free-form risk assessment for a prompt.
type Oracle interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gate scores tokens before any buy decision. Every failure mode yields
// a failing verdict: an unreachable or unparseable oracle never lets a
// token through.
type Gate struct {
	oracle    Oracle
	logger    *zap.Logger
	threshold int
	timeout   time.Duration
}

// GateOption configures Gate.
type GateOption func(*Gate)

// WithThreshold sets the passing score threshold.
func WithThreshold(n int) GateOption {
	return func(g *Gate) {
		g.threshold = n
	}
}

// WithAnalysisTimeout sets the per-call oracle timeout.
func WithAnalysisTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.timeout = d
	}
}

// NewGate creates a risk gate backed by the given oracle.
func NewGate(oracle Oracle, logger *zap.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gate{
		oracle:    oracle,
		logger:    logger,
		threshold: DefaultThreshold,
		timeout:   DefaultAnalysisTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// scoreRe matches the first integer in the oracle's reply.
var scoreRe = regexp.MustCompile(`\d+`)

// Analyze scores a token mint. The returned verdict is always usable;
// on oracle failure it carries a neutral score and Passed=false.
func (g *Gate) Analyze(ctx context.Context, mint string) domain.RiskVerdict {
	// Fail-closed default when the oracle cannot be consulted.
	verdict := domain.RiskVerdict{Score: 50, Passed: false}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.oracle.Generate(ctx, buildPrompt(mint))
	if err != nil {
		g.logger.Warn("risk oracle call failed",
			zap.String("mint", mint),
			zap.Error(err))
		verdict.Rationale = fmt.Sprintf("oracle unavailable: %v", err)
		return verdict
	}

	score, ok := parseScore(reply)
	if !ok {
		g.logger.Warn("risk oracle reply had no score",
			zap.String("mint", mint),
			zap.String("reply", truncate(reply, 200)))
		verdict.Rationale = "unparseable oracle reply"
		return verdict
	}

	verdict.Score = score
	verdict.Passed = score >= g.threshold
	verdict.Rationale = strings.TrimSpace(reply)

	g.logger.Info("risk verdict",
		zap.String("mint", mint),
		zap.Int("score", score),
		zap.Bool("passed", verdict.Passed))

	return verdict
}

// buildPrompt asks for a single safety score in a fixed range.
func buildPrompt(mint string) string {
	return fmt.Sprintf(
		"You are a Solana token risk analyst. Rate the safety of the token "+
			"with mint address %s on a scale from 0 (certain scam) to 100 "+
			"(established, safe). Consider mint authority, freeze authority, "+
			"holder distribution and typical rug-pull markers. Reply with the "+
			"numeric score first, then a one-sentence rationale.", mint)
}

// parseScore extracts the first integer from the reply and clamps it
// to [0, 100].
func parseScore(reply string) (int, bool) {
	m := scoreRe.FindString(reply)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return n, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
