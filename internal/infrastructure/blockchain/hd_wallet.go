package blockchain

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	"minefactory.backend/internal/domain/entities"
)

// ErrInvalidMnemonic is returned for seeds that are not 12-24 words
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

// HDWallet derives per-user deposit addresses on m/44'/60'/0'/0/i
type HDWallet struct {
	external *hdkeychain.ExtendedKey
}

// NewHDWallet builds the wallet from a BIP39 mnemonic (or an xprv string)
func NewHDWallet(secret, passphrase string) (*HDWallet, error) {
	secret = strings.TrimSpace(secret)
	if strings.HasPrefix(secret, "xprv") {
		master, err := hdkeychain.NewKeyFromString(secret)
		if err != nil {
			return nil, fmt.Errorf("parse extended key: %w", err)
		}
		return fromMaster(master)
	}

	words := strings.Fields(secret)
	switch len(words) {
	case 12, 15, 18, 21, 24:
	default:
		return nil, fmt.Errorf("%w: got %d words", ErrInvalidMnemonic, len(words))
	}
	mnemonic := strings.Join(words, " ")

	seed := pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+passphrase), 2048, 64, sha512.New)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("derive master key: %w", err)
	}
	return fromMaster(master)
}

func fromMaster(master *hdkeychain.ExtendedKey) (*HDWallet, error) {
	key := master
	for _, idx := range []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + 60,
		hdkeychain.HardenedKeyStart + 0,
		0,
	} {
		child, err := key.Derive(idx)
		if err != nil {
			return nil, fmt.Errorf("derive account path: %w", err)
		}
		key = child
	}
	return &HDWallet{external: key}, nil
}

// DeriveAddress returns the lower-cased address at index
func (w *HDWallet) DeriveAddress(index uint32) (string, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return "", fmt.Errorf("derivation index %d out of range", index)
	}
	child, err := w.external.Derive(index)
	if err != nil {
		return "", fmt.Errorf("derive index %d: %w", index, err)
	}
	pub, err := child.ECPubKey()
	if err != nil {
		return "", fmt.Errorf("public key at %d: %w", index, err)
	}
	return pubKeyAddress(pub), nil
}

func pubKeyAddress(pub *btcec.PublicKey) string {
	return entities.NormalizeAddress(crypto.PubkeyToAddress(*pub.ToECDSA()).Hex())
}
