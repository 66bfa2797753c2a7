package domain

// WhitelistEntry marks a pool address as cleared for automated purchase.
// Presence of the row is the approval signal; Revoked exists for future
// operator tooling and is always false today.
type WhitelistEntry struct {
	PoolAddress string // PRIMARY KEY
	ApprovedAt  int64  // Unix timestamp in milliseconds
	Revoked     bool
}
