package mnemonic

import (
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

// SeedSize is the length of a stretched seed in bytes (512 bits).
const SeedSize = 64

// seedIterations is the fixed PBKDF2 round count from BIP-39. The
// stretching is deliberately slow; it runs to completion with no
// cancellation semantics.
const seedIterations = 2048

// seedSaltPrefix is prepended to the passphrase to form the PBKDF2 salt.
const seedSaltPrefix = "mnemonic"

// NewSeed stretches a mnemonic and optional passphrase into a 512-bit
// seed using PBKDF2-HMAC-SHA512. Both inputs are NFKD-normalized
// first. The same (mnemonic, passphrase) pair always yields the same
// seed; an empty passphrase is valid and yields a different seed than
// any non-empty one.
//
// The mnemonic is not validated; use NewSeedChecked to reject
// mistyped phrases before an unrecoverable wrong seed is derived.
func NewSeed(mnemonic, passphrase string) []byte {
	password := []byte(norm.NFKD.String(mnemonic))
	salt := []byte(norm.NFKD.String(seedSaltPrefix + passphrase))
	return pbkdf2.Key(password, salt, seedIterations, SeedSize, sha512.New)
}

// NewSeedChecked validates the mnemonic's words and checksum, then
// derives the seed.
func NewSeedChecked(mnemonic, passphrase string) ([]byte, error) {
	if _, err := ToEntropy(mnemonic); err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}
	return NewSeed(mnemonic, passphrase), nil
}
