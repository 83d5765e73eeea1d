package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-wallet/pkg/hdkeychain"
	"github.com/Klingon-tech/klingnet-wallet/pkg/mnemonic"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := NewFromMnemonic(testPhrase, "", &hdkeychain.MainNetParams)
	if err != nil {
		t.Fatalf("NewFromMnemonic() error: %v", err)
	}
	return w
}

func TestNewFromMnemonic(t *testing.T) {
	w := testWallet(t)
	if w.IsWatchOnly() {
		t.Error("wallet from mnemonic should hold private keys")
	}
	if w.Network() != &hdkeychain.MainNetParams {
		t.Error("network params not retained")
	}

	// Same phrase, same wallet.
	again := testWallet(t)
	if w.ExportMaster() != again.ExportMaster() {
		t.Error("identical mnemonics should produce identical master keys")
	}

	// A passphrase changes the whole tree.
	other, err := NewFromMnemonic(testPhrase, "TREZOR", &hdkeychain.MainNetParams)
	if err != nil {
		t.Fatalf("NewFromMnemonic() error: %v", err)
	}
	if w.ExportMaster() == other.ExportMaster() {
		t.Error("passphrase should change the master key")
	}
}

func TestNewFromMnemonic_Invalid(t *testing.T) {
	phrases := []string{
		"",
		"abandon abandon abandon",
		"abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon",
		"notaword abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
	}
	for _, phrase := range phrases {
		if _, err := NewFromMnemonic(phrase, "", &hdkeychain.MainNetParams); err == nil {
			t.Errorf("NewFromMnemonic(%q) should fail", phrase)
		}
	}
}

func TestAccountKey(t *testing.T) {
	w := testWallet(t)

	key, err := w.AccountKey(0)
	if err != nil {
		t.Fatalf("AccountKey(0) error: %v", err)
	}
	defer key.Zero()

	if !key.IsPrivate() {
		t.Error("account key should be private")
	}
	if key.Depth() != 3 {
		t.Errorf("account key depth = %d, want 3", key.Depth())
	}
	if key.ChildIndex() != hdkeychain.Hardened(0) {
		t.Errorf("account key index = %d, want hardened 0", key.ChildIndex())
	}

	// Direct path derivation agrees.
	master, err := hdkeychain.NewKeyFromString(w.ExportMaster())
	if err != nil {
		t.Fatalf("NewKeyFromString() error: %v", err)
	}
	want, err := master.DerivePath(hdkeychain.Path{
		hdkeychain.Hardened(44), hdkeychain.Hardened(0), hdkeychain.Hardened(0),
	})
	if err != nil {
		t.Fatalf("DerivePath() error: %v", err)
	}
	if key.String() != want.String() {
		t.Error("AccountKey disagrees with direct m/44'/0'/0' derivation")
	}

	if _, err := w.AccountKey(hdkeychain.HardenedKeyStart); !errors.Is(err, hdkeychain.ErrInvalidBIP44Field) {
		t.Errorf("AccountKey(2^31) error = %v, want ErrInvalidBIP44Field", err)
	}
}

func TestAddresses(t *testing.T) {
	w := testWallet(t)

	addrs, err := w.Addresses(0, hdkeychain.ExternalChain, 0, 5)
	if err != nil {
		t.Fatalf("Addresses() error: %v", err)
	}
	if len(addrs) != 5 {
		t.Fatalf("got %d addresses, want 5", len(addrs))
	}

	seen := make(map[Address]bool)
	for i, addr := range addrs {
		if addr.IsZero() {
			t.Errorf("address %d is zero", i)
		}
		if seen[addr] {
			t.Errorf("address %d repeats an earlier address", i)
		}
		seen[addr] = true
	}

	// Single derivation matches the batch.
	single, err := w.Address(0, hdkeychain.ExternalChain, 3)
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	if single != addrs[3] {
		t.Error("Address(3) disagrees with Addresses batch")
	}

	// Internal chain is a disjoint sequence.
	change, err := w.Address(0, hdkeychain.InternalChain, 0)
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	if change == addrs[0] {
		t.Error("external and internal chains should not collide")
	}
}

// TestAddresses_InvalidChange checks that out-of-grammar chain values
// are rejected instead of silently deriving a non-standard chain.
func TestAddresses_InvalidChange(t *testing.T) {
	w := testWallet(t)

	for _, change := range []uint32{2, 7, hdkeychain.HardenedKeyStart} {
		if _, err := w.Addresses(0, change, 0, 1); !errors.Is(err, hdkeychain.ErrInvalidBIP44Field) {
			t.Errorf("Addresses(change=%d) error = %v, want ErrInvalidBIP44Field", change, err)
		}
	}

	acct, err := w.NeuterAccount(0)
	if err != nil {
		t.Fatalf("NeuterAccount() error: %v", err)
	}
	for _, change := range []uint32{2, 7} {
		if _, err := ScanAddresses(acct, change, 0, 1); !errors.Is(err, hdkeychain.ErrInvalidBIP44Field) {
			t.Errorf("ScanAddresses(change=%d) error = %v, want ErrInvalidBIP44Field", change, err)
		}
	}
}

// TestScanAddresses_WatchOnlyParity checks that scanning from an
// exported public account key yields exactly the addresses the full
// wallet derives.
func TestScanAddresses_WatchOnlyParity(t *testing.T) {
	w := testWallet(t)

	acctPub, err := w.NeuterAccount(0)
	if err != nil {
		t.Fatalf("NeuterAccount() error: %v", err)
	}
	if acctPub.IsPrivate() {
		t.Fatal("neutered account key should be public")
	}

	// Round-trip through serialization, as an exported xpub would.
	decoded, err := hdkeychain.NewKeyFromString(acctPub.String())
	if err != nil {
		t.Fatalf("NewKeyFromString() error: %v", err)
	}

	scanned, err := ScanAddresses(decoded, hdkeychain.ExternalChain, 0, 8)
	if err != nil {
		t.Fatalf("ScanAddresses() error: %v", err)
	}
	full, err := w.Addresses(0, hdkeychain.ExternalChain, 0, 8)
	if err != nil {
		t.Fatalf("Addresses() error: %v", err)
	}
	for i := range full {
		if scanned[i] != full[i] {
			t.Errorf("address %d: scan = %s, full wallet = %s", i, scanned[i], full[i])
		}
	}
}

func TestWatchOnly(t *testing.T) {
	w := testWallet(t)
	wo := w.WatchOnly()

	if !wo.IsWatchOnly() {
		t.Fatal("WatchOnly() wallet should be watch-only")
	}

	// Hardened account derivation needs private material.
	if _, err := wo.AccountKey(0); !errors.Is(err, ErrWatchOnly) {
		t.Errorf("AccountKey error = %v, want ErrWatchOnly", err)
	}
	if _, err := wo.AddressKey(0, 0, 0); !errors.Is(err, ErrWatchOnly) {
		t.Errorf("AddressKey error = %v, want ErrWatchOnly", err)
	}
	if _, err := wo.NeuterAccount(0); !errors.Is(err, ErrWatchOnly) {
		t.Errorf("NeuterAccount error = %v, want ErrWatchOnly", err)
	}

	// The export is the public serialization of the same master.
	master, err := hdkeychain.NewKeyFromString(w.ExportMaster())
	if err != nil {
		t.Fatalf("NewKeyFromString() error: %v", err)
	}
	if wo.ExportMaster() != master.Neuter().String() {
		t.Error("watch-only export should be the neutered master")
	}
}

func TestNewFromSeed_Errors(t *testing.T) {
	if _, err := NewFromSeed([]byte{1, 2, 3}, &hdkeychain.MainNetParams); !errors.Is(err, hdkeychain.ErrInvalidSeedLen) {
		t.Errorf("error = %v, want ErrInvalidSeedLen", err)
	}
}

func TestWalletZero(t *testing.T) {
	seed := mnemonic.NewSeed(testPhrase, "")
	w, err := NewFromSeed(seed, &hdkeychain.MainNetParams)
	if err != nil {
		t.Fatalf("NewFromSeed() error: %v", err)
	}

	w.Zero()
	if _, err := w.AccountKey(0); err == nil {
		t.Error("zeroed wallet should not derive keys")
	}
}
