package hdkeychain

// NetworkParams carries the serialization version tags and the BIP-44
// coin type for one network. The version tag is the sole carrier of
// the network and private/public distinction in an encoded key;
// callers must never infer either from text length.
type NetworkParams struct {
	Name string

	// HDPrivateKeyID and HDPublicKeyID are the 4-byte version tags
	// prepended to serialized extended keys.
	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte

	// HDCoinType is the BIP-44 coin type field for this network.
	HDCoinType uint32
}

// MainNetParams uses the standard xprv/xpub version tags.
var MainNetParams = NetworkParams{
	Name:           "mainnet",
	HDPrivateKeyID: [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
	HDPublicKeyID:  [4]byte{0x04, 0x88, 0xb2, 0x1e}, // xpub
	HDCoinType:     0,
}

// TestNetParams uses the standard tprv/tpub version tags.
var TestNetParams = NetworkParams{
	Name:           "testnet",
	HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
	HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub
	HDCoinType:     1,
}

// networks are the params consulted when decoding a version tag.
var networks = []*NetworkParams{&MainNetParams, &TestNetParams}

// networkForVersion resolves a serialized version tag to its network
// and visibility. ok is false for unknown tags.
func networkForVersion(version [4]byte) (net *NetworkParams, private, ok bool) {
	for _, n := range networks {
		switch version {
		case n.HDPrivateKeyID:
			return n, true, true
		case n.HDPublicKeyID:
			return n, false, true
		}
	}
	return nil, false, false
}
