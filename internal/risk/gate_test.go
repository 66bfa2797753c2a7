package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeOracle returns a canned reply or error.
type fakeOracle struct {
	reply string
	err   error
	delay time.Duration
	calls int
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func TestGate_Analyze_Passing(t *testing.T) {
	oracle := &fakeOracle{reply: "85 - mint authority revoked, healthy holder spread"}
	gate := NewGate(oracle, nil)

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 85, verdict.Score)
	assert.True(t, verdict.Passed)
	assert.Contains(t, verdict.Rationale, "mint authority revoked")
	assert.Equal(t, 1, oracle.calls)
}

func TestGate_Analyze_Failing(t *testing.T) {
	oracle := &fakeOracle{reply: "Score: 20. Freeze authority still active."}
	gate := NewGate(oracle, nil)

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 20, verdict.Score)
	assert.False(t, verdict.Passed)
}

func TestGate_Analyze_ExactThreshold(t *testing.T) {
	oracle := &fakeOracle{reply: "70"}
	gate := NewGate(oracle, nil)

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 70, verdict.Score)
	assert.True(t, verdict.Passed, "score equal to threshold passes")
}

func TestGate_Analyze_OracleError_FailsClosed(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("quota exceeded")}
	gate := NewGate(oracle, nil)

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 50, verdict.Score)
	assert.False(t, verdict.Passed)
	assert.Contains(t, verdict.Rationale, "oracle unavailable")
}

func TestGate_Analyze_UnparseableReply_FailsClosed(t *testing.T) {
	oracle := &fakeOracle{reply: "this token looks fine to me"}
	gate := NewGate(oracle, nil)

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 50, verdict.Score)
	assert.False(t, verdict.Passed)
	assert.Equal(t, "unparseable oracle reply", verdict.Rationale)
}

func TestGate_Analyze_Timeout_FailsClosed(t *testing.T) {
	oracle := &fakeOracle{reply: "90", delay: time.Second}
	gate := NewGate(oracle, nil, WithAnalysisTimeout(10*time.Millisecond))

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.False(t, verdict.Passed)
	assert.Equal(t, 50, verdict.Score)
}

func TestGate_Analyze_CustomThreshold(t *testing.T) {
	oracle := &fakeOracle{reply: "60 decent but young"}
	gate := NewGate(oracle, nil, WithThreshold(55))

	verdict := gate.Analyze(context.Background(), "somemint")

	assert.Equal(t, 60, verdict.Score)
	assert.True(t, verdict.Passed)
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  int
		ok    bool
	}{
		{"leading score", "85 looks good", 85, true},
		{"labelled score", "Risk score: 42 out of 100", 42, true},
		{"clamped high", "150", 100, true},
		{"zero", "0 certain rug", 0, true},
		{"no digits", "no idea", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseScore(tt.reply)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
