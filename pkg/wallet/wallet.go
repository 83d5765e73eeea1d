// Package wallet provides account-level key management over the HD
// derivation engine: BIP-44 account and address keys from a mnemonic
// or seed, watch-only projections for hardware-wallet style
// integrations, and sealing of the seed for external storage.
package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/internal/zero"
	"github.com/Klingon-tech/klingnet-wallet/pkg/hdkeychain"
	"github.com/Klingon-tech/klingnet-wallet/pkg/mnemonic"
)

// ErrWatchOnly is returned when an operation needs private key
// material but the wallet holds only public keys. Hardened account
// derivation is the usual trigger.
var ErrWatchOnly = errors.New("wallet: operation requires a private key, wallet is watch-only")

// Wallet manages one HD key tree rooted at a master extended key.
// All derivation is on demand; the wallet holds no derived keys.
// Log events go through the wallet component logger, read at call
// time so log.Init reconfiguration reaches existing wallets.
type Wallet struct {
	net    *hdkeychain.NetworkParams
	master *hdkeychain.ExtendedKey
}

// NewFromSeed creates a wallet from a stretched seed. The caller
// keeps ownership of the seed and should wipe it after use.
func NewFromSeed(seed []byte, net *hdkeychain.NetworkParams) (*Wallet, error) {
	master, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	log.Wallet.Debug().Str("network", net.Name).Msg("wallet created from seed")
	return &Wallet{net: net, master: master}, nil
}

// NewFromMnemonic validates the mnemonic, stretches it with the
// passphrase and creates the wallet. The intermediate seed is wiped
// before returning.
func NewFromMnemonic(phrase, passphrase string, net *hdkeychain.NetworkParams) (*Wallet, error) {
	seed, err := mnemonic.NewSeedChecked(phrase, passphrase)
	if err != nil {
		return nil, err
	}
	defer zero.Bytes(seed)
	return NewFromSeed(seed, net)
}

// IsWatchOnly reports whether the wallet holds only public keys.
func (w *Wallet) IsWatchOnly() bool {
	return !w.master.IsPrivate()
}

// Network returns the wallet's network params.
func (w *Wallet) Network() *hdkeychain.NetworkParams {
	return w.net
}

// AccountKey derives the extended private key for an account at
// m/44'/coin'/account'. Fails with ErrWatchOnly on watch-only
// wallets, since every step is hardened.
func (w *Wallet) AccountKey(account uint32) (*hdkeychain.ExtendedKey, error) {
	if w.IsWatchOnly() {
		return nil, ErrWatchOnly
	}
	if account >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%w: account %d", hdkeychain.ErrInvalidBIP44Field, account)
	}
	path := hdkeychain.Path{
		hdkeychain.Hardened(hdkeychain.Purpose),
		hdkeychain.Hardened(w.net.HDCoinType),
		hdkeychain.Hardened(account),
	}
	key, err := w.master.DerivePath(path)
	if err != nil {
		return nil, err
	}
	log.Wallet.Debug().Uint32("account", account).Msg("derived account key")
	return key, nil
}

// NeuterAccount derives an account key and returns its public-only
// projection, the export format for watch-only and hardware-wallet
// collaborators.
func (w *Wallet) NeuterAccount(account uint32) (*hdkeychain.ExtendedKey, error) {
	key, err := w.AccountKey(account)
	if err != nil {
		return nil, err
	}
	defer key.Zero()
	return key.Neuter(), nil
}

// AddressKey derives the key at m/44'/coin'/account'/change/index.
// If derivation lands on an invalid child (cryptographically
// negligible) the error is ErrInvalidChild and the caller retries
// with index+1.
func (w *Wallet) AddressKey(account, change, index uint32) (*hdkeychain.ExtendedKey, error) {
	if w.IsWatchOnly() {
		return nil, ErrWatchOnly
	}
	path, err := hdkeychain.BIP44Path(w.net.HDCoinType, account, change, index)
	if err != nil {
		return nil, err
	}
	return w.master.DerivePath(path)
}

// Address derives the native address at m/44'/coin'/account'/change/index.
func (w *Wallet) Address(account, change, index uint32) (Address, error) {
	key, err := w.AddressKey(account, change, index)
	if err != nil {
		return Address{}, err
	}
	defer key.Zero()
	return NewAddress(key.SerializedPubKey()), nil
}

// Addresses derives count consecutive addresses starting at index on
// the given account and chain. Each derivation is independent and
// read-only of its parent.
func (w *Wallet) Addresses(account, change, start, count uint32) ([]Address, error) {
	if err := checkChange(change); err != nil {
		return nil, err
	}
	acct, err := w.AccountKey(account)
	if err != nil {
		return nil, err
	}
	defer acct.Zero()

	chain, err := acct.Derive(change)
	if err != nil {
		return nil, err
	}
	defer chain.Zero()

	return scanChain(chain, start, count)
}

// ScanAddresses derives count consecutive addresses from a public
// account key, the path used when only an exported xpub is available.
// The account key is change-level parent material: addresses come
// from accountKey/change/index with non-hardened steps throughout.
func ScanAddresses(accountKey *hdkeychain.ExtendedKey, change, start, count uint32) ([]Address, error) {
	if err := checkChange(change); err != nil {
		return nil, err
	}
	chain, err := accountKey.Derive(change)
	if err != nil {
		return nil, err
	}
	return scanChain(chain, start, count)
}

// checkChange rejects chain values outside the BIP-44 grammar before
// they silently select a non-standard chain.
func checkChange(change uint32) error {
	if change != hdkeychain.ExternalChain && change != hdkeychain.InternalChain {
		return fmt.Errorf("%w: change must be 0 or 1, got %d", hdkeychain.ErrInvalidBIP44Field, change)
	}
	return nil
}

func scanChain(chain *hdkeychain.ExtendedKey, start, count uint32) ([]Address, error) {
	addrs := make([]Address, 0, count)
	for i := uint32(0); i < count; i++ {
		key, err := chain.Derive(start + i)
		if err != nil {
			return nil, fmt.Errorf("derive index %d: %w", start+i, err)
		}
		addrs = append(addrs, NewAddress(key.SerializedPubKey()))
		key.Zero()
	}
	return addrs, nil
}

// ExportMaster returns the serialized master extended key. Private on
// a full wallet, public on a watch-only one; callers persisting the
// result own the consequences.
func (w *Wallet) ExportMaster() string {
	return w.master.String()
}

// WatchOnly returns a wallet holding only the neutered master key.
// It can derive non-hardened children but no hardened ones and no
// private material.
func (w *Wallet) WatchOnly() *Wallet {
	return &Wallet{net: w.net, master: w.master.Neuter()}
}

// Zero wipes the wallet's master key. The wallet is unusable
// afterwards.
func (w *Wallet) Zero() {
	w.master.Zero()
	log.Wallet.Debug().Msg("wallet zeroed")
}
