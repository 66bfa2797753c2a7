package domain

// RiskVerdict is the outcome of one risk-scoring pass for a token.
// It is not persisted on its own; the score and rationale fold into the Pool.
type RiskVerdict struct {
	Score     int    // 0-100
	Passed    bool   // score >= configured threshold
	Rationale string // free text from the oracle, or the failure reason
}
