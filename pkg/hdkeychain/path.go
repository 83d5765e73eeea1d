package hdkeychain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BIP-44 path constants. Full path: m/44'/coin_type'/account'/change/index.
const (
	// Purpose is the BIP-44 purpose field, derived hardened.
	Purpose = 44

	// ExternalChain is the change field for receiving addresses.
	ExternalChain = 0

	// InternalChain is the change field for change addresses.
	InternalChain = 1
)

// ErrInvalidPath is returned for path strings that do not follow the
// m/0'/1/2' grammar. The wrapped error names the offending element.
var ErrInvalidPath = errors.New("hdkeychain: invalid derivation path")

// ErrInvalidBIP44Field is returned when a BIP-44 path field is out of
// range.
var ErrInvalidBIP44Field = errors.New("hdkeychain: BIP-44 field out of range")

// Path is an ordered sequence of child indices, one derivation step
// each, with the hardened flag folded into the index high bit.
type Path []uint32

// Hardened returns the hardened child index for i.
func Hardened(i uint32) uint32 { return HardenedKeyStart + i }

// ParsePath parses textual notation like "m/44'/0'/0'/0/0" into a
// Path. An apostrophe or 'h'/'H' suffix marks a hardened step; a bare
// "m" is the empty path. Each index must be below 2^31 before the
// hardened flag is applied.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	if parts[0] != "m" && parts[0] != "M" {
		return nil, fmt.Errorf("%w: must start with \"m\"", ErrInvalidPath)
	}
	if len(parts) == 2 && parts[1] == "" {
		// Trailing slash with nothing after it.
		return nil, fmt.Errorf("%w: empty path element", ErrInvalidPath)
	}

	path := make(Path, 0, len(parts)-1)
	for _, elem := range parts[1:] {
		raw := elem
		hardened := false
		if n := len(elem); n > 0 {
			switch elem[n-1] {
			case '\'', 'h', 'H':
				hardened = true
				elem = elem[:n-1]
			}
		}
		index, err := strconv.ParseUint(elem, 10, 32)
		if err != nil || index >= uint64(HardenedKeyStart) {
			return nil, fmt.Errorf("%w: element %q", ErrInvalidPath, raw)
		}
		if hardened {
			index += uint64(HardenedKeyStart)
		}
		path = append(path, uint32(index))
	}
	return path, nil
}

// String renders the path in apostrophe-hardened notation.
func (p Path) String() string {
	var sb strings.Builder
	sb.WriteByte('m')
	for _, index := range p {
		sb.WriteByte('/')
		if index >= HardenedKeyStart {
			sb.WriteString(strconv.FormatUint(uint64(index-HardenedKeyStart), 10))
			sb.WriteByte('\'')
		} else {
			sb.WriteString(strconv.FormatUint(uint64(index), 10))
		}
	}
	return sb.String()
}

// BIP44Path builds the fixed five-level account grammar
// m/44'/coin'/account'/change/index. Purpose, coin type and account
// are hardened; change must be 0 (external) or 1 (internal) and the
// address index non-hardened.
func BIP44Path(coinType, account, change, index uint32) (Path, error) {
	if coinType >= HardenedKeyStart || account >= HardenedKeyStart {
		return nil, fmt.Errorf("%w: coin type and account must be below 2^31", ErrInvalidBIP44Field)
	}
	if change != ExternalChain && change != InternalChain {
		return nil, fmt.Errorf("%w: change must be 0 or 1, got %d", ErrInvalidBIP44Field, change)
	}
	if index >= HardenedKeyStart {
		return nil, fmt.Errorf("%w: address index must be below 2^31", ErrInvalidBIP44Field)
	}
	return Path{
		Hardened(Purpose),
		Hardened(coinType),
		Hardened(account),
		change,
		index,
	}, nil
}

// DerivePath walks the key one derivation step per path element.
// Hardened steps require the key (and every intermediate) to be
// private; walking a hardened step from a public-only key fails with
// ErrDeriveHardFromPublic.
//
// Intermediate keys are wiped as soon as the next step is derived,
// on error paths included. The root and the returned key are the
// caller's.
func (k *ExtendedKey) DerivePath(path Path) (*ExtendedKey, error) {
	current := k
	for i, index := range path {
		child, err := current.Derive(index)
		if current != k {
			current.Zero()
		}
		if err != nil {
			return nil, fmt.Errorf("derive step %d of %s: %w", i, path, err)
		}
		current = child
	}
	return current, nil
}
