// derive_key.go prints the extended keys at a derivation path for a
// mnemonic read from a file.
// Usage: go run scripts/derive_key.go <mnemonic-file> [path]
package main

import (
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/Klingon-tech/klingnet-wallet/pkg/hdkeychain"
	"github.com/Klingon-tech/klingnet-wallet/pkg/mnemonic"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: derive_key <mnemonic-file> [path]")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	phrase := strings.TrimSpace(string(data))

	pathStr := "m/44'/0'/0'/0/0"
	if len(os.Args) > 2 {
		pathStr = os.Args[2]
	}
	path, err := hdkeychain.ParsePath(pathStr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var passphrase string
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(os.Stderr, "passphrase (empty for none): ")
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		passphrase = string(raw)
	}

	seed, err := mnemonic.NewSeedChecked(phrase, passphrase)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	master, err := hdkeychain.NewMaster(seed, &hdkeychain.MainNetParams)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	key, err := master.DerivePath(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("path=%s\n", path)
	fmt.Printf("xprv=%s\n", key)
	fmt.Printf("xpub=%s\n", key.Neuter())
}
