package domain

// TradeStatus is the execution status of a buy attempt that produced a signature.
type TradeStatus string

const (
	TradeStatusExecuted TradeStatus = "executed"
	TradeStatusFailed   TradeStatus = "failed"
)

// Trade represents a single broadcast buy. Corresponds to the trades table.
// The broadcast signature is the identity and the idempotency key; a retry
// that produces a new signature is a new row. Rows are immutable.
type Trade struct {
	Signature   string      // PRIMARY KEY, base58 transaction signature
	PoolAddress string      // pool the buy targeted
	OutputMint  string      // token bought
	InLamports  uint64      // spend amount in lamports
	OutAmount   uint64      // quoted output amount (estimate, not confirmed on-chain)
	Status      TradeStatus // executed | failed
	ExecutedAt  int64       // Unix timestamp in milliseconds
}
