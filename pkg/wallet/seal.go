package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/Klingon-tech/klingnet-wallet/internal/zero"
)

// Seed sealing wraps the wallet seed for handoff to a storage
// collaborator. The engine itself never persists anything; SealSeed
// emits a self-describing blob and OpenSeed reverses it.
//
// Blob format:
//
//	version(1) | salt(16) | time(4) | memory(4) | threads(1) | nonce(24) | ciphertext
//
// with the Argon2id parameters big-endian so old blobs stay readable
// when defaults change.
const (
	sealVersion    = 1
	sealSaltSize   = 16
	sealHeaderSize = 1 + sealSaltSize + 4 + 4 + 1
)

var (
	// ErrSealTooShort is returned for blobs shorter than the minimum
	// header plus AEAD overhead.
	ErrSealTooShort = errors.New("wallet: sealed seed too short")

	// ErrSealVersion is returned for blobs with an unknown format
	// version.
	ErrSealVersion = errors.New("wallet: unknown sealed seed version")

	// ErrSealPassword is returned when the AEAD open fails, which
	// with overwhelming probability means a wrong password.
	ErrSealPassword = errors.New("wallet: cannot open sealed seed, wrong password or corrupted data")
)

// SealParams holds the Argon2id cost parameters baked into a blob.
type SealParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultSealParams returns the recommended Argon2id costs.
func DefaultSealParams() SealParams {
	return SealParams{
		Time:      3,
		MemoryKiB: 64 * 1024, // 64 MiB
		Threads:   4,
	}
}

func sealKey(password, salt []byte, p SealParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, chacha20poly1305.KeySize)
}

// SealSeed encrypts a seed under a password with Argon2id key
// derivation and XChaCha20-Poly1305. The derived key is wiped before
// returning on every path.
func SealSeed(seed, password []byte, params SealParams) ([]byte, error) {
	salt := make([]byte, sealSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := sealKey(password, salt, params)
	defer zero.Bytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	blob := make([]byte, 0, sealHeaderSize+len(nonce)+len(seed)+aead.Overhead())
	blob = append(blob, sealVersion)
	blob = append(blob, salt...)
	blob = binary.BigEndian.AppendUint32(blob, params.Time)
	blob = binary.BigEndian.AppendUint32(blob, params.MemoryKiB)
	blob = append(blob, params.Threads)
	blob = append(blob, nonce...)
	return aead.Seal(blob, nonce, seed, nil), nil
}

// OpenSeed decrypts a blob produced by SealSeed. The cost parameters
// come from the blob itself.
func OpenSeed(blob, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	if len(blob) < sealHeaderSize+nonceSize+chacha20poly1305.Overhead {
		return nil, ErrSealTooShort
	}
	if blob[0] != sealVersion {
		return nil, fmt.Errorf("%w: %d", ErrSealVersion, blob[0])
	}

	salt := blob[1 : 1+sealSaltSize]
	params := SealParams{
		Time:      binary.BigEndian.Uint32(blob[1+sealSaltSize:]),
		MemoryKiB: binary.BigEndian.Uint32(blob[1+sealSaltSize+4:]),
		Threads:   blob[1+sealSaltSize+8],
	}
	nonce := blob[sealHeaderSize : sealHeaderSize+nonceSize]
	ciphertext := blob[sealHeaderSize+nonceSize:]

	key := sealKey(password, salt, params)
	defer zero.Bytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	seed, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrSealPassword
	}
	return seed, nil
}
