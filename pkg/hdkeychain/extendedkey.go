// Package hdkeychain implements BIP-32 hierarchical deterministic
// extended keys: master key creation from a seed, hardened and
// non-hardened child derivation over secp256k1, and the versioned
// base58check serialization that makes keys portable across wallet
// implementations.
//
// Extended keys are immutable after construction; deriving a child
// produces an independent value and never mutates the parent, so
// concurrent derivation from a shared parent needs no locking.
package hdkeychain

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"

	"github.com/Klingon-tech/klingnet-wallet/internal/zero"
)

const (
	// HardenedKeyStart is the first hardened child index. The high bit
	// of a child index is the hardened flag.
	HardenedKeyStart uint32 = 0x80000000 // 2^31

	// MinSeedBytes and MaxSeedBytes bound the accepted seed length
	// (128 to 512 bits).
	MinSeedBytes = 16
	MaxSeedBytes = 64

	// maxDepth is the deepest parent a child can be derived from;
	// depth is stored in a single byte.
	maxDepth = 255

	// serializedKeyLen is the length of the raw serialized payload:
	// version(4) + depth(1) + parent fingerprint(4) + child index(4) +
	// chain code(32) + key(33).
	serializedKeyLen = 78

	// keyLen is the length of the key material field: a 33-byte
	// compressed point, or 0x00 followed by a 32-byte scalar.
	keyLen = 33
)

// masterHMACKey is the domain-separation key for master key derivation.
var masterHMACKey = []byte("Bitcoin seed")

var (
	// ErrInvalidSeedLen is returned by NewMaster for seeds outside
	// the 128 to 512 bit range.
	ErrInvalidSeedLen = fmt.Errorf("hdkeychain: seed must be between %d and %d bits", MinSeedBytes*8, MaxSeedBytes*8)

	// ErrUnusableSeed is returned when a seed hashes to a scalar that
	// is zero or not below the curve order. The probability is
	// negligible, but per the standard the seed must be rejected
	// rather than adjusted.
	ErrUnusableSeed = errors.New("hdkeychain: seed produces an unusable master key")

	// ErrInvalidChild is returned when child derivation lands on a
	// zero scalar, an out-of-range intermediate, or the point at
	// infinity. The caller recovers by retrying with the next index;
	// the condition is never skipped silently.
	ErrInvalidChild = errors.New("hdkeychain: child index produces an invalid key, retry with the next index")

	// ErrDeriveBeyondMaxDepth is returned when deriving from a key
	// already at depth 255.
	ErrDeriveBeyondMaxDepth = errors.New("hdkeychain: cannot derive beyond maximum depth of 255")

	// ErrDeriveHardFromPublic is returned when a hardened child is
	// requested from a public-only extended key.
	ErrDeriveHardFromPublic = errors.New("hdkeychain: cannot derive a hardened child from a public key")

	// ErrNotPrivExtKey is returned when private material is requested
	// from a public-only extended key.
	ErrNotPrivExtKey = errors.New("hdkeychain: extended key is public-only")

	// ErrInvalidKeyLen is returned when a decoded serialized key is
	// not exactly 82 bytes.
	ErrInvalidKeyLen = errors.New("hdkeychain: serialized extended key is not 82 bytes")

	// ErrBadChecksum is returned when a serialized key fails its
	// base58check checksum.
	ErrBadChecksum = errors.New("hdkeychain: bad extended key checksum")

	// ErrMalformedKey is returned when a serialized key decodes to
	// key material that is not a valid scalar or curve point.
	ErrMalformedKey = errors.New("hdkeychain: malformed extended key")

	// ErrUnknownVersion is returned when a serialized key carries a
	// version tag no known network uses.
	ErrUnknownVersion = errors.New("hdkeychain: unknown extended key version tag")
)

// ExtendedKey is one node of an HD key tree: key material plus the
// chain code, depth, parent fingerprint and child index needed to
// derive and serialize it. The private and public variants share the
// representation; IsPrivate distinguishes them, and only the private
// variant can derive hardened children or yield a private scalar.
type ExtendedKey struct {
	net       *NetworkParams
	key       []byte // 32-byte scalar (private) or 33-byte compressed point
	pubKey    []byte // compressed point for private keys, set at construction
	chainCode []byte
	parentFP  [4]byte
	childNum  uint32
	depth     uint8
	isPrivate bool
}

// NewMaster derives the depth-zero master extended private key for a
// network from a seed. The seed is hashed with HMAC-SHA512 under a
// fixed domain key; the left half becomes the private scalar and the
// right half the chain code.
func NewMaster(seed []byte, net *NetworkParams) (*ExtendedKey, error) {
	if len(seed) < MinSeedBytes || len(seed) > MaxSeedBytes {
		return nil, ErrInvalidSeedLen
	}

	mac := hmac.New(sha512.New, masterHMACKey)
	mac.Write(seed)
	sum := mac.Sum(nil)
	defer zero.Bytes(sum)

	secret, chainCode := sum[:32], sum[32:]

	var s secp256k1.ModNScalar
	overflow := s.SetByteSlice(secret)
	zeroScalar := s.IsZero()
	s.Zero()
	if overflow || zeroScalar {
		return nil, ErrUnusableSeed
	}

	key := make([]byte, 32)
	copy(key, secret)
	chain := make([]byte, 32)
	copy(chain, chainCode)

	return &ExtendedKey{
		net:       net,
		key:       key,
		pubKey:    compressedPubKey(key),
		chainCode: chain,
		isPrivate: true,
	}, nil
}

// Derive returns the child extended key at the given index. Indices at
// or above HardenedKeyStart are hardened and require a private parent.
// The child keeps the parent's visibility: private parents yield
// private children, public parents yield public children.
//
// On ErrInvalidChild the caller retries with index+1 per the standard.
func (k *ExtendedKey) Derive(index uint32) (*ExtendedKey, error) {
	if k.depth == maxDepth {
		return nil, ErrDeriveBeyondMaxDepth
	}

	hardened := index >= HardenedKeyStart
	if hardened && !k.isPrivate {
		return nil, ErrDeriveHardFromPublic
	}

	// Keyed-hash input: 0x00 || scalar || index for hardened children,
	// compressed point || index otherwise.
	data := make([]byte, 0, keyLen+4)
	if hardened {
		data = append(data, 0x00)
		data = append(data, k.key...)
	} else {
		data = append(data, k.pubKeyBytes()...)
	}
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, k.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	defer zero.Bytes(sum)

	il, ir := sum[:32], sum[32:]

	var ilScalar secp256k1.ModNScalar
	defer ilScalar.Zero()
	if overflow := ilScalar.SetByteSlice(il); overflow {
		return nil, ErrInvalidChild
	}

	child := &ExtendedKey{
		net:       k.net,
		chainCode: append([]byte(nil), ir...),
		depth:     k.depth + 1,
		parentFP:  k.Fingerprint(),
		childNum:  index,
		isPrivate: k.isPrivate,
	}

	if k.isPrivate {
		// Child scalar = (IL + parent scalar) mod N. A zero result is
		// rejected, not remapped.
		var parentScalar secp256k1.ModNScalar
		parentScalar.SetByteSlice(k.key)
		ilScalar.Add(&parentScalar)
		parentScalar.Zero()
		if ilScalar.IsZero() {
			return nil, ErrInvalidChild
		}
		childKey := ilScalar.Bytes()
		child.key = append([]byte(nil), childKey[:]...)
		zero.Bytes32(&childKey)
		child.pubKey = compressedPubKey(child.key)
		return child, nil
	}

	// Child point = IL*G + parent point. An IL of zero or a result at
	// infinity is rejected the same way.
	if ilScalar.IsZero() {
		return nil, ErrInvalidChild
	}
	parentPub, err := secp256k1.ParsePubKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("parse parent public key: %w", err)
	}

	var ilPoint, parentPoint, childPoint secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&ilScalar, &ilPoint)
	parentPub.AsJacobian(&parentPoint)
	secp256k1.AddNonConst(&ilPoint, &parentPoint, &childPoint)
	if childPoint.Z.IsZero() {
		return nil, ErrInvalidChild
	}
	childPoint.ToAffine()

	child.key = secp256k1.NewPublicKey(&childPoint.X, &childPoint.Y).SerializeCompressed()
	return child, nil
}

// Neuter returns the public counterpart of this extended key: the
// private scalar is replaced by the compressed public point while
// chain code, depth, fingerprint and index carry over. The projection
// is one-way and always succeeds; neutering a public key returns a
// copy.
func (k *ExtendedKey) Neuter() *ExtendedKey {
	return &ExtendedKey{
		net:       k.net,
		key:       append([]byte(nil), k.pubKeyBytes()...),
		chainCode: append([]byte(nil), k.chainCode...),
		parentFP:  k.parentFP,
		childNum:  k.childNum,
		depth:     k.depth,
		isPrivate: false,
	}
}

// pubKeyBytes returns the compressed public point. For private keys
// the point is computed once at construction, never on the read path;
// a derived key must stay read-only of its parent so that concurrent
// derivation from a shared parent needs no locking.
func (k *ExtendedKey) pubKeyBytes() []byte {
	if !k.isPrivate {
		return k.key
	}
	return k.pubKey
}

// compressedPubKey computes the compressed public point for a private
// scalar.
func compressedPubKey(key []byte) []byte {
	priv := secp256k1.PrivKeyFromBytes(key)
	pub := priv.PubKey().SerializeCompressed()
	priv.Zero()
	return pub
}

// ECPubKey returns the key's public point as a secp256k1 public key.
func (k *ExtendedKey) ECPubKey() (*secp256k1.PublicKey, error) {
	return secp256k1.ParsePubKey(k.pubKeyBytes())
}

// ECPrivKey returns the private scalar as a secp256k1 private key.
// Fails with ErrNotPrivExtKey on public-only keys.
func (k *ExtendedKey) ECPrivKey() (*secp256k1.PrivateKey, error) {
	if !k.isPrivate {
		return nil, ErrNotPrivExtKey
	}
	return secp256k1.PrivKeyFromBytes(k.key), nil
}

// SerializedPubKey returns a copy of the compressed public point.
func (k *ExtendedKey) SerializedPubKey() []byte {
	return append([]byte(nil), k.pubKeyBytes()...)
}

// Identifier returns the HASH160 of the compressed public point.
func (k *ExtendedKey) Identifier() []byte {
	return hash160(k.pubKeyBytes())
}

// Fingerprint returns the first four bytes of the Identifier. It links
// a child to its parent for display and lookup only, never for
// security decisions.
func (k *ExtendedKey) Fingerprint() [4]byte {
	var fp [4]byte
	copy(fp[:], hash160(k.pubKeyBytes())[:4])
	return fp
}

// IsPrivate reports whether the key holds a private scalar.
func (k *ExtendedKey) IsPrivate() bool { return k.isPrivate }

// Depth returns the derivation depth, 0 for a master key.
func (k *ExtendedKey) Depth() uint8 { return k.depth }

// ParentFingerprint returns the fingerprint of this key's parent,
// zero for a master key.
func (k *ExtendedKey) ParentFingerprint() [4]byte { return k.parentFP }

// ChildIndex returns the index this key was derived at, hardened bit
// intact. Zero for a master key.
func (k *ExtendedKey) ChildIndex() uint32 { return k.childNum }

// ChainCode returns a copy of the 256-bit chain code.
func (k *ExtendedKey) ChainCode() []byte {
	return append([]byte(nil), k.chainCode...)
}

// Network returns the params this key serializes under.
func (k *ExtendedKey) Network() *NetworkParams { return k.net }

// IsForNet reports whether the key serializes under the given params.
func (k *ExtendedKey) IsForNet(net *NetworkParams) bool { return k.net == net }

// Zero wipes the key material and chain code. The key is unusable
// afterwards.
func (k *ExtendedKey) Zero() {
	zero.Bytes(k.key)
	zero.Bytes(k.pubKey)
	zero.Bytes(k.chainCode)
	k.key = nil
	k.pubKey = nil
	k.chainCode = nil
	k.parentFP = [4]byte{}
	k.childNum = 0
	k.depth = 0
	k.isPrivate = false
}

// String encodes the extended key as base58check text: a 78-byte
// payload of version, depth, parent fingerprint, child index, chain
// code and key material, followed by a 4-byte double-SHA256 checksum.
func (k *ExtendedKey) String() string {
	if len(k.key) == 0 {
		return "zeroed extended key"
	}

	var version [4]byte
	if k.isPrivate {
		version = k.net.HDPrivateKeyID
	} else {
		version = k.net.HDPublicKeyID
	}

	payload := make([]byte, 0, serializedKeyLen+4)
	payload = append(payload, version[:]...)
	payload = append(payload, k.depth)
	payload = append(payload, k.parentFP[:]...)
	payload = binary.BigEndian.AppendUint32(payload, k.childNum)
	payload = append(payload, k.chainCode...)
	if k.isPrivate {
		payload = append(payload, 0x00)
		payload = append(payload, k.key...)
	} else {
		payload = append(payload, k.key...)
	}

	checksum := doubleSHA256(payload)
	payload = append(payload, checksum[:4]...)
	return base58.Encode(payload)
}

// NewKeyFromString decodes a base58check-encoded extended key,
// verifying length and checksum and selecting the network and
// private/public variant from the version tag alone.
func NewKeyFromString(encoded string) (*ExtendedKey, error) {
	decoded := base58.Decode(encoded)
	if len(decoded) != serializedKeyLen+4 {
		return nil, ErrInvalidKeyLen
	}

	payload := decoded[:serializedKeyLen]
	checksum := doubleSHA256(payload)
	if !hmac.Equal(checksum[:4], decoded[serializedKeyLen:]) {
		return nil, ErrBadChecksum
	}

	var version [4]byte
	copy(version[:], payload[:4])
	net, private, ok := networkForVersion(version)
	if !ok {
		return nil, ErrUnknownVersion
	}

	k := &ExtendedKey{
		net:       net,
		depth:     payload[4],
		childNum:  binary.BigEndian.Uint32(payload[9:13]),
		chainCode: append([]byte(nil), payload[13:45]...),
		isPrivate: private,
	}
	copy(k.parentFP[:], payload[5:9])

	keyData := payload[45:78]
	if private {
		if keyData[0] != 0x00 {
			return nil, ErrMalformedKey
		}
		var s secp256k1.ModNScalar
		overflow := s.SetByteSlice(keyData[1:])
		zeroScalar := s.IsZero()
		s.Zero()
		if overflow || zeroScalar {
			return nil, ErrMalformedKey
		}
		k.key = append([]byte(nil), keyData[1:]...)
		k.pubKey = compressedPubKey(k.key)
	} else {
		if _, err := secp256k1.ParsePubKey(keyData); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedKey, err)
		}
		k.key = append([]byte(nil), keyData...)
	}

	return k, nil
}

// hash160 computes RIPEMD160(SHA256(data)).
func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sha[:])
	return h.Sum(nil)
}

// doubleSHA256 computes SHA256(SHA256(data)).
func doubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}
