// Package keyring guards the sequencer's signing key in locked memory,
// opening it only for the instant a cosignature is produced.
package keyring

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Config selects how the signing key is obtained. Exactly one of
// PlaintextHex or KMSCiphertextHex should be set; PlaintextHex is the
// default local/dev path, KMSCiphertextHex is the production path.
type Config struct {
	PlaintextHex       string
	KMSCiphertextHex   string
	AWSRegion          string
	LocalStackEndpoint string
}

// Keyring holds the sequencer's private key sealed in a memguard.Enclave.
// The key is only ever decrypted into process memory for the duration of
// a single signing operation.
type Keyring struct {
	enclave *memguard.Enclave
	address common.Address
}

// Load obtains the signing key per cfg and seals it. The plaintext bytes
// used to construct the enclave are wiped by memguard.NewEnclave.
func Load(ctx context.Context, cfg Config) (*Keyring, error) {
	var keyBytes []byte
	var err error

	switch {
	case strings.TrimSpace(cfg.PlaintextHex) != "":
		keyBytes, err = decodeHexKey(cfg.PlaintextHex)
		if err != nil {
			return nil, fmt.Errorf("keyring: decode plaintext key: %w", err)
		}
	case strings.TrimSpace(cfg.KMSCiphertextHex) != "":
		ciphertext, err := hex.DecodeString(strings.TrimPrefix(cfg.KMSCiphertextHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("keyring: decode kms ciphertext: %w", err)
		}
		client, err := newKMSClient(ctx, cfg.AWSRegion, cfg.LocalStackEndpoint)
		if err != nil {
			return nil, err
		}
		plaintext, err := client.decrypt(ctx, ciphertext)
		if err != nil {
			return nil, err
		}
		keyBytes, err = decodeHexKey(string(plaintext))
		memguard.WipeBytes(plaintext)
		if err != nil {
			return nil, fmt.Errorf("keyring: decode decrypted key: %w", err)
		}
	default:
		return nil, fmt.Errorf("keyring: no key source configured")
	}

	privKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		memguard.WipeBytes(keyBytes)
		return nil, fmt.Errorf("keyring: invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(privKey.PublicKey)

	// memguard.NewEnclave takes ownership of keyBytes and wipes the source.
	enclave := memguard.NewEnclave(keyBytes)

	return &Keyring{enclave: enclave, address: addr}, nil
}

// Address returns the signer's Ethereum address, derived once at Load time.
// This is not secret and may be logged or exposed via cmd/inspect.
func (k *Keyring) Address() common.Address { return k.address }

// WithKey opens the enclave for the duration of fn, then destroys the
// decrypted buffer regardless of fn's outcome. fn must not retain the key
// beyond its own scope.
func (k *Keyring) WithKey(fn func(*ecdsa.PrivateKey) error) error {
	buf, err := k.enclave.Open()
	if err != nil {
		return fmt.Errorf("keyring: open enclave: %w", err)
	}
	defer buf.Destroy()

	privKey, err := crypto.ToECDSA(buf.Bytes())
	if err != nil {
		return fmt.Errorf("keyring: reconstruct key: %w", err)
	}
	return fn(privKey)
}

// Cosign opens the enclave, signs digest, normalizes the recovery byte to
// 27/28, and destroys the decrypted buffer before returning.
func (k *Keyring) Cosign(digest [32]byte) ([]byte, error) {
	var sig []byte
	err := k.WithKey(func(privKey *ecdsa.PrivateKey) error {
		s, err := crypto.Sign(digest[:], privKey)
		if err != nil {
			return err
		}
		s[64] += 27
		sig = s
		return nil
	})
	return sig, err
}

func decodeHexKey(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
}
