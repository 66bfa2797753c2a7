package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"

	"github.com/ethanan544-art/sniper-engine/internal/solana"
)

// Errors returned by wallet operations.
var (
	ErrInvalidSecretKey = errors.New("invalid secret key")
	ErrMalformedTx      = errors.New("malformed transaction")
)

// Wallet holds a Solana keypair and signs transactions with it.
type Wallet struct {
	priv   ed25519.PrivateKey
	pubkey string
	rpc    solana.RPCClient
}

// New creates a wallet from a base58-encoded 64-byte secret key
// (the standard Solana keypair export format). The embedded public key
// must be a valid point on the edwards25519 curve.
func New(secretBase58 string, rpc solana.RPCClient) (*Wallet, error) {
	raw, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecretKey, err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidSecretKey, len(raw), ed25519.PrivateKeySize)
	}

	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)

	if _, err := new(edwards25519.Point).SetBytes(pub); err != nil {
		return nil, fmt.Errorf("%w: public key not on curve", ErrInvalidSecretKey)
	}

	return &Wallet{
		priv:   priv,
		pubkey: base58.Encode(pub),
		rpc:    rpc,
	}, nil
}

// PublicKey returns the wallet address as base58.
func (w *Wallet) PublicKey() string {
	return w.pubkey
}

// Balance returns the wallet's lamport balance.
func (w *Wallet) Balance(ctx context.Context) (uint64, error) {
	return w.rpc.GetBalance(ctx, w.pubkey)
}

// SignTransaction signs a base64-encoded unsigned Solana transaction and
// returns the signed transaction (base64) and the signature (base58).
// The wire format is a compact-u16 signature count, the signature slots,
// then the message bytes that get signed.
func (w *Wallet) SignTransaction(txBase64 string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}

	numSigs, offset, err := decodeCompactU16(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedTx, err)
	}
	if numSigs < 1 {
		return "", "", fmt.Errorf("%w: no signature slots", ErrMalformedTx)
	}

	sigBytes := numSigs * ed25519.SignatureSize
	if len(raw) < offset+sigBytes {
		return "", "", fmt.Errorf("%w: truncated signature section", ErrMalformedTx)
	}

	message := raw[offset+sigBytes:]
	if len(message) == 0 {
		return "", "", fmt.Errorf("%w: empty message", ErrMalformedTx)
	}

	sig := ed25519.Sign(w.priv, message)

	// Fee payer signature occupies the first slot.
	copy(raw[offset:offset+ed25519.SignatureSize], sig)

	return base64.StdEncoding.EncodeToString(raw), base58.Encode(sig), nil
}

// decodeCompactU16 reads a compact-u16 length prefix. Returns the value
// and the number of bytes consumed.
func decodeCompactU16(data []byte) (int, int, error) {
	var value, shift uint
	for i := 0; i < 3; i++ {
		if i >= len(data) {
			return 0, 0, errors.New("truncated compact-u16")
		}
		b := uint(data[i])
		value |= (b & 0x7f) << shift
		if b&0x80 == 0 {
			if value > 0xffff {
				return 0, 0, errors.New("compact-u16 overflow")
			}
			return int(value), i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New("compact-u16 too long")
}
