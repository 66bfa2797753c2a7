package feed

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// Pool account layout constants. Offsets are into the raw account data of
// a newly initialized AMM pool state account.
const (
	// PoolAccountSize is the byte size of an AMM pool state account.
	// The programSubscribe dataSize filter uses this value so only pool
	// state accounts produce notifications.
	PoolAccountSize = 752

	baseVaultOffset  = 336
	quoteVaultOffset = 368
	baseMintOffset   = 400
	quoteMintOffset  = 432

	pubkeyLen = 32
)

// PoolAccount holds the fields decoded from a pool state account.
type PoolAccount struct {
	BaseVault  string
	QuoteVault string
	BaseMint   string
	QuoteMint  string
}

// DecodePoolAccount extracts vault and mint addresses from raw pool
// account data. Returns an error for truncated data or zeroed key slots,
// which indicate an account that is not yet fully initialized.
func DecodePoolAccount(data []byte) (*PoolAccount, error) {
	if len(data) < PoolAccountSize {
		return nil, fmt.Errorf("account data too short: %d bytes, need %d", len(data), PoolAccountSize)
	}

	baseVault, err := pubkeyAt(data, baseVaultOffset)
	if err != nil {
		return nil, fmt.Errorf("base vault: %w", err)
	}
	quoteVault, err := pubkeyAt(data, quoteVaultOffset)
	if err != nil {
		return nil, fmt.Errorf("quote vault: %w", err)
	}
	baseMint, err := pubkeyAt(data, baseMintOffset)
	if err != nil {
		return nil, fmt.Errorf("base mint: %w", err)
	}
	quoteMint, err := pubkeyAt(data, quoteMintOffset)
	if err != nil {
		return nil, fmt.Errorf("quote mint: %w", err)
	}

	return &PoolAccount{
		BaseVault:  baseVault,
		QuoteVault: quoteVault,
		BaseMint:   baseMint,
		QuoteMint:  quoteMint,
	}, nil
}

// pubkeyAt reads a 32-byte public key at offset and returns it base58 encoded.
func pubkeyAt(data []byte, offset int) (string, error) {
	key := data[offset : offset+pubkeyLen]

	allZero := true
	for _, b := range key {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return "", fmt.Errorf("zeroed key at offset %d", offset)
	}

	return base58.Encode(key), nil
}
