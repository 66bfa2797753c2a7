package domain

// PoolCreated is a normalized "new pool" notification emitted by the event feed.
// Duplicate events for one address are possible; consumers dedup by address.
type PoolCreated struct {
	Address     string  // pool account address (base58)
	BaseMint    string  // base asset mint
	QuoteMint   string  // paired token mint; empty when decode failed
	Liquidity   float64 // liquidity estimate in SOL, best effort
	Slot        int64
	TxSignature string // may be empty; program notifications do not always carry one
	DetectedAt  int64  // Unix timestamp in milliseconds
}

// LedgerEventKind classifies append-only pipeline ledger rows.
type LedgerEventKind string

const (
	LedgerPoolObserved  LedgerEventKind = "pool_observed"
	LedgerVerdict       LedgerEventKind = "verdict"
	LedgerTradeExecuted LedgerEventKind = "trade_executed"
	LedgerTradeFailed   LedgerEventKind = "trade_failed"
)

// LedgerEvent is one append-only row in the pipeline ledger, consumed by the
// dashboard. Insert-only; never updated.
type LedgerEvent struct {
	Kind        LedgerEventKind
	PoolAddress string
	Detail      string // human-readable context (rationale, error, signature)
	Timestamp   int64  // Unix timestamp in milliseconds
}
