package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Keypair signs with a locally held ed25519 key.
type Keypair struct {
	key solana.PrivateKey
}

func NewKeypair(key solana.PrivateKey) (*Keypair, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key length %d", len(key))
	}
	return &Keypair{key: key}, nil
}

// LoadKeypair reads a solana-keygen JSON keypair file.
func LoadKeypair(path string) (*Keypair, error) {
	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load keypair %s: %w", path, err)
	}
	return NewKeypair(key)
}

func (k *Keypair) PublicKey() solana.PublicKey {
	return k.key.PublicKey()
}

func (k *Keypair) SignTransaction(_ context.Context, tx *solana.Transaction) error {
	owner := k.key.PublicKey()
	_, err := tx.Sign(func(signer solana.PublicKey) *solana.PrivateKey {
		if signer.Equals(owner) {
			return &k.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
