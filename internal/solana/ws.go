package solana

import "context"

// WSClient defines the Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeProgram subscribes to account updates owned by a program.
	SubscribeProgram(ctx context.Context, filter ProgramFilter) (<-chan AccountNotification, error)

	// Close closes the WebSocket connection.
	Close() error
}

// ProgramFilter defines the subscription filter for programSubscribe.
type ProgramFilter struct {
	// ProgramID is the owner program whose accounts are watched.
	ProgramID string
	// DataSize restricts notifications to accounts of this exact byte size.
	// Zero means no size filter.
	DataSize int64
}

// AccountNotification represents one program-account update.
type AccountNotification struct {
	Pubkey   string // account address (base58)
	Slot     int64
	Lamports uint64
	Owner    string
	Data     []byte // raw account data, decoded from base64
}
