// klingnet-wallet is a command-line tool for hierarchical deterministic
// key management: mnemonic generation, key derivation, address listing
// and sealed seed storage.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	klog "github.com/Klingon-tech/klingnet-wallet/internal/log"
	"github.com/Klingon-tech/klingnet-wallet/internal/zero"
	"github.com/Klingon-tech/klingnet-wallet/pkg/hdkeychain"
	"github.com/Klingon-tech/klingnet-wallet/pkg/mnemonic"
	"github.com/Klingon-tech/klingnet-wallet/pkg/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	network := "mainnet"
	logLevel := "warn"
	jsonLog := false

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--network" && len(args) > 1:
			network = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			network = args[0][len("--network="):]
			args = args[1:]
		case args[0] == "--log-level" && len(args) > 1:
			logLevel = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--log-level="):
			logLevel = args[0][len("--log-level="):]
			args = args[1:]
		case args[0] == "--json-log":
			jsonLog = true
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	klog.Init(logLevel, jsonLog)

	var net *hdkeychain.NetworkParams
	switch network {
	case "mainnet":
		net = &hdkeychain.MainNetParams
	case "testnet":
		net = &hdkeychain.TestNetParams
	default:
		fatal("unknown network %q, want mainnet or testnet", network)
	}

	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "generate":
		cmdGenerate(cmdArgs)
	case "derive":
		cmdDerive(cmdArgs, net)
	case "addresses":
		cmdAddresses(cmdArgs, net)
	case "scan":
		cmdScan(cmdArgs)
	case "inspect":
		cmdInspect(cmdArgs)
	case "seal":
		cmdSeal(cmdArgs)
	case "open":
		cmdOpen(cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: klingnet-wallet [global flags] <command> [flags]

Global flags:
  --network <net>     mainnet (default) or testnet
  --log-level <lvl>   debug, info, warn (default) or error
  --json-log          Structured JSON log output

Commands:
  generate [--bits <n>]           Generate a new mnemonic (128-256 bits)
  derive --mnemonic-file <f> [--path <p>]
                                  Derive the extended keys at a path
  addresses --mnemonic-file <f> [--account <n>] [--internal]
            [--start <n>] [--count <n>]
                                  List account addresses
  scan --account-key <xpub> [--internal] [--start <n>] [--count <n>]
                                  List addresses from a public account key
  inspect <xprv|xpub>             Decode an extended key
  seal --mnemonic-file <f> --out <file>
                                  Encrypt the seed to a file
  open --in <file>                Decrypt a sealed seed
`)
}

// ── generate ────────────────────────────────────────────────────────────

func cmdGenerate(args []string) {
	fs := newFlagSet("generate")
	bits := fs.Int("bits", mnemonic.DefaultEntropyBits, "Entropy size in bits")
	fs.Parse(args)

	phrase, err := mnemonic.Generate(*bits)
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n", phrase)
}

// ── derive ──────────────────────────────────────────────────────────────

func cmdDerive(args []string, net *hdkeychain.NetworkParams) {
	fs := newFlagSet("derive")
	file := fs.String("mnemonic-file", "", "File holding the mnemonic")
	pathStr := fs.String("path", "m/44'/0'/0'/0/0", "Derivation path")
	fs.Parse(args)

	if *file == "" {
		fatal("Usage: klingnet-wallet derive --mnemonic-file <f> [--path <p>]")
	}

	path, err := hdkeychain.ParsePath(*pathStr)
	if err != nil {
		fatal("%v", err)
	}

	phrase := readMnemonicFile(*file)
	passphrase := promptPassphrase()

	seed, err := mnemonic.NewSeedChecked(phrase, passphrase)
	if err != nil {
		fatal("%v", err)
	}
	defer zero.Bytes(seed)

	master, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	defer master.Zero()

	key, err := master.DerivePath(path)
	if err != nil {
		fatal("%v", err)
	}
	defer key.Zero()

	fmt.Printf("path=%s\n", path)
	fmt.Printf("xprv=%s\n", key)
	fmt.Printf("xpub=%s\n", key.Neuter())
}

// ── addresses ───────────────────────────────────────────────────────────

func cmdAddresses(args []string, net *hdkeychain.NetworkParams) {
	fs := newFlagSet("addresses")
	file := fs.String("mnemonic-file", "", "File holding the mnemonic")
	account := fs.Uint("account", 0, "Account number")
	internal := fs.Bool("internal", false, "List the internal (change) chain")
	start := fs.Uint("start", 0, "First address index")
	count := fs.Uint("count", 10, "Number of addresses")
	fs.Parse(args)

	if *file == "" {
		fatal("Usage: klingnet-wallet addresses --mnemonic-file <f> [flags]")
	}

	phrase := readMnemonicFile(*file)
	passphrase := promptPassphrase()

	w, err := wallet.NewFromMnemonic(phrase, passphrase, net)
	if err != nil {
		fatal("%v", err)
	}
	defer w.Zero()

	change := uint32(hdkeychain.ExternalChain)
	if *internal {
		change = hdkeychain.InternalChain
	}
	addrs, err := w.Addresses(uint32(*account), change, uint32(*start), uint32(*count))
	if err != nil {
		fatal("%v", err)
	}
	for i, addr := range addrs {
		path, err := hdkeychain.BIP44Path(net.HDCoinType, uint32(*account), change, uint32(*start)+uint32(i))
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("%-22s %s\n", path, addr)
	}
}

// ── scan ────────────────────────────────────────────────────────────────

func cmdScan(args []string) {
	fs := newFlagSet("scan")
	acctKey := fs.String("account-key", "", "Public account key (xpub)")
	internal := fs.Bool("internal", false, "Scan the internal (change) chain")
	start := fs.Uint("start", 0, "First address index")
	count := fs.Uint("count", 10, "Number of addresses")
	fs.Parse(args)

	if *acctKey == "" {
		fatal("Usage: klingnet-wallet scan --account-key <xpub> [flags]")
	}

	key, err := hdkeychain.NewKeyFromString(*acctKey)
	if err != nil {
		fatal("%v", err)
	}
	if key.IsPrivate() {
		fatal("scan expects a public account key; use 'derive' for private keys")
	}

	change := uint32(hdkeychain.ExternalChain)
	if *internal {
		change = hdkeychain.InternalChain
	}
	addrs, err := wallet.ScanAddresses(key, change, uint32(*start), uint32(*count))
	if err != nil {
		fatal("%v", err)
	}
	for i, addr := range addrs {
		fmt.Printf("%d/%-10d %s\n", change, uint32(*start)+uint32(i), addr)
	}
}

// ── inspect ─────────────────────────────────────────────────────────────

func cmdInspect(args []string) {
	if len(args) < 1 {
		fatal("Usage: klingnet-wallet inspect <xprv|xpub>")
	}

	key, err := hdkeychain.NewKeyFromString(args[0])
	if err != nil {
		fatal("%v", err)
	}

	kind := "public"
	if key.IsPrivate() {
		kind = "private"
	}
	fp := key.Fingerprint()
	parentFP := key.ParentFingerprint()

	fmt.Printf("network=%s\n", key.Network().Name)
	fmt.Printf("type=%s\n", kind)
	fmt.Printf("depth=%d\n", key.Depth())
	fmt.Printf("fingerprint=%s\n", hex.EncodeToString(fp[:]))
	fmt.Printf("parent_fingerprint=%s\n", hex.EncodeToString(parentFP[:]))
	if idx := key.ChildIndex(); idx >= hdkeychain.HardenedKeyStart {
		fmt.Printf("child_index=%d'\n", idx-hdkeychain.HardenedKeyStart)
	} else {
		fmt.Printf("child_index=%d\n", idx)
	}
	fmt.Printf("chain_code=%s\n", hex.EncodeToString(key.ChainCode()))
}

// ── seal / open ─────────────────────────────────────────────────────────

func cmdSeal(args []string) {
	fs := newFlagSet("seal")
	file := fs.String("mnemonic-file", "", "File holding the mnemonic")
	out := fs.String("out", "", "Output file for the sealed seed")
	fs.Parse(args)

	if *file == "" || *out == "" {
		fatal("Usage: klingnet-wallet seal --mnemonic-file <f> --out <file>")
	}

	phrase := readMnemonicFile(*file)
	passphrase := promptPassphrase()

	seed, err := mnemonic.NewSeedChecked(phrase, passphrase)
	if err != nil {
		fatal("%v", err)
	}
	defer zero.Bytes(seed)

	password, err := readPassword("Seal password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	blob, err := wallet.SealSeed(seed, password, wallet.DefaultSealParams())
	if err != nil {
		fatal("seal seed: %v", err)
	}
	if err := os.WriteFile(*out, blob, 0o600); err != nil {
		fatal("write sealed seed: %v", err)
	}
	fmt.Printf("sealed seed written to %s\n", *out)
}

func cmdOpen(args []string) {
	fs := newFlagSet("open")
	in := fs.String("in", "", "File holding the sealed seed")
	fs.Parse(args)

	if *in == "" {
		fatal("Usage: klingnet-wallet open --in <file>")
	}

	blob, err := os.ReadFile(*in)
	if err != nil {
		fatal("read sealed seed: %v", err)
	}

	password, err := readPassword("Seal password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	seed, err := wallet.OpenSeed(blob, password)
	if err != nil {
		fatal("%v", err)
	}
	defer zero.Bytes(seed)

	fmt.Printf("seed=%s\n", hex.EncodeToString(seed))
}

// ── helpers ─────────────────────────────────────────────────────────────

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}

func readMnemonicFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("read mnemonic: %v", err)
	}
	return strings.TrimSpace(string(data))
}

// promptPassphrase asks for the optional BIP-39 passphrase when stdin
// is a terminal; in pipelines it stays empty.
func promptPassphrase() string {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return ""
	}
	raw, err := readPassword("Passphrase (empty for none): ")
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	return string(raw)
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
