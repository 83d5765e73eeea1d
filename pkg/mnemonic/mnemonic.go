// Package mnemonic implements the BIP-39 encoding between raw entropy
// and checksum-protected word sequences, plus the seed stretching that
// turns a mnemonic into a wallet seed.
package mnemonic

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// Entropy size bounds in bits. Valid sizes are every multiple of 32
// bits between the two, giving 12 to 24 word mnemonics.
const (
	MinEntropyBits = 128
	MaxEntropyBits = 256

	// DefaultEntropyBits yields 24-word mnemonics.
	DefaultEntropyBits = 256

	// bitsPerWord is the wordlist index width: 2048 words = 11 bits.
	bitsPerWord = 11
)

var (
	// ErrInvalidEntropyLength is returned for entropy that is not
	// 128, 160, 192, 224 or 256 bits long.
	ErrInvalidEntropyLength = errors.New("mnemonic: entropy must be 128, 160, 192, 224 or 256 bits")

	// ErrInvalidLength is returned for mnemonics whose word count is
	// not 12, 15, 18, 21 or 24.
	ErrInvalidLength = errors.New("mnemonic: word count must be 12, 15, 18, 21 or 24")

	// ErrInvalidWord is returned when a word is not part of the
	// wordlist. The wrapped error names the word and its position.
	ErrInvalidWord = errors.New("mnemonic: word not in wordlist")

	// ErrChecksumMismatch is returned when the checksum bits embedded
	// in a mnemonic do not match the hash of its entropy portion.
	ErrChecksumMismatch = errors.New("mnemonic: checksum mismatch")
)

// wordList is the standard 2048-word English list.
var wordList = wordlists.English

// wordIndex maps each word to its wordlist position.
var wordIndex = func() map[string]int {
	m := make(map[string]int, len(wordList))
	for i, w := range wordList {
		m[w] = i
	}
	return m
}()

// NewEntropy returns cryptographically secure random entropy of the
// given bit size.
func NewEntropy(bits int) ([]byte, error) {
	if err := checkEntropyBits(bits); err != nil {
		return nil, err
	}
	entropy := make([]byte, bits/8)
	if _, err := rand.Read(entropy); err != nil {
		return nil, fmt.Errorf("generate entropy: %w", err)
	}
	return entropy, nil
}

// FromEntropy encodes entropy into a mnemonic. A checksum of
// len(entropy)/4 bits, taken from the high bits of SHA-256(entropy),
// is appended before the result is split into 11-bit word indices.
func FromEntropy(entropy []byte) (string, error) {
	if err := checkEntropyBits(len(entropy) * 8); err != nil {
		return "", err
	}

	entBits := len(entropy) * 8
	csBits := entBits / 32
	wordCount := (entBits + csBits) / bitsPerWord

	hash := sha256.Sum256(entropy)

	// Assemble ENT+CS bits: entropy shifted left, checksum in the low bits.
	acc := new(big.Int).SetBytes(entropy)
	acc.Lsh(acc, uint(csBits))
	acc.Or(acc, big.NewInt(int64(hash[0]>>(8-csBits))))

	// Peel off 11 bits per word, last word first.
	indexMask := big.NewInt(1<<bitsPerWord - 1)
	scratch := new(big.Int)
	words := make([]string, wordCount)
	for i := wordCount - 1; i >= 0; i-- {
		scratch.And(acc, indexMask)
		words[i] = wordList[scratch.Int64()]
		acc.Rsh(acc, bitsPerWord)
	}

	return strings.Join(words, " "), nil
}

// ToEntropy decodes a mnemonic back into its entropy, re-verifying the
// embedded checksum. The checksum re-verification is the only typo
// detector standing between a mistyped phrase and a wrong but
// well-formed seed, so it is never skipped.
func ToEntropy(mnemonic string) ([]byte, error) {
	words := strings.Fields(mnemonic)
	if len(words) < 12 || len(words) > 24 || len(words)%3 != 0 {
		return nil, ErrInvalidLength
	}

	acc := new(big.Int)
	idx := new(big.Int)
	for i, w := range words {
		n, ok := wordIndex[w]
		if !ok {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidWord, w, i)
		}
		acc.Lsh(acc, bitsPerWord)
		acc.Or(acc, idx.SetInt64(int64(n)))
	}

	// Split ENT+CS back into entropy and checksum. CS is at most 8
	// bits, so it fits a byte.
	csBits := len(words) / 3
	entBits := len(words)*bitsPerWord - csBits
	checksum := byte(new(big.Int).And(acc, big.NewInt(1<<csBits-1)).Uint64())
	acc.Rsh(acc, uint(csBits))
	entropy := acc.FillBytes(make([]byte, entBits/8))

	hash := sha256.Sum256(entropy)
	if checksum != hash[0]>>(8-csBits) {
		return nil, ErrChecksumMismatch
	}

	return entropy, nil
}

// Generate creates a fresh mnemonic from newly drawn entropy of the
// given bit size.
func Generate(bits int) (string, error) {
	entropy, err := NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return FromEntropy(entropy)
}

// Validate reports whether a mnemonic has valid words and checksum.
func Validate(mnemonic string) bool {
	_, err := ToEntropy(mnemonic)
	return err == nil
}

func checkEntropyBits(bits int) error {
	if bits < MinEntropyBits || bits > MaxEntropyBits || bits%32 != 0 {
		return ErrInvalidEntropyLength
	}
	return nil
}
