package domain

// PoolStatus is the lifecycle status of an observed pool.
// Transitions: analyzing -> pending | risky. No automatic transitions after that.
type PoolStatus string

const (
	// PoolStatusAnalyzing is set when a pool is first observed, before scoring.
	PoolStatusAnalyzing PoolStatus = "analyzing"
	// PoolStatusPending means the risk gate passed; the pool awaits (or has) a whitelist entry.
	PoolStatusPending PoolStatus = "pending"
	// PoolStatusRisky means the risk gate rejected the pool.
	PoolStatusRisky PoolStatus = "risky"
)

// WrappedSOLMint is the mint address of wrapped SOL. Every tradeable
// pool has it on one side; which side depends on how the pool was
// initialized.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Pool represents a liquidity pool observed on-chain.
// Corresponds to the pools table. Rows are never deleted; only the status
// (and risk fields) change, exactly once per scoring pass.
type Pool struct {
	Address       string     // PRIMARY KEY, pool account address (base58)
	BaseMint      string     // base side mint as laid out in the account data; may be wrapped SOL
	QuoteMint     string     // quote side mint; may be wrapped SOL, empty when decode failed
	Liquidity     float64    // observed liquidity estimate in SOL, best effort
	Slot          int64      // slot of the creation notification
	TxSignature   string     // creation transaction signature, may be empty
	DetectedAt    int64      // Unix timestamp in milliseconds
	Status        PoolStatus // analyzing | pending | risky
	RiskScore     *int       // 0-100, nil until scored
	RiskRationale *string    // oracle rationale text, nil until scored
}

// TargetMint returns the mint the executor would buy: whichever side of
// the pool is not wrapped SOL. Empty when neither side is wrapped SOL or
// token identity could not be decoded from the account data.
func (p *Pool) TargetMint() string {
	var target string
	switch WrappedSOLMint {
	case p.BaseMint:
		target = p.QuoteMint
	case p.QuoteMint:
		target = p.BaseMint
	}
	if target == WrappedSOLMint {
		return ""
	}
	return target
}
