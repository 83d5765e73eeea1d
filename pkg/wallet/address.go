package wallet

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// AddressSize is the length of a native address in bytes.
const AddressSize = 20

// Address is a native klingnet address: the first 20 bytes of the
// BLAKE3-256 hash of a compressed public key.
type Address [AddressSize]byte

// NewAddress derives an address from a compressed public key.
func NewAddress(pubKey []byte) Address {
	h := blake3.Sum256(pubKey)
	var addr Address
	copy(addr[:], h[:AddressSize])
	return addr
}

// String returns the hex-encoded address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}
