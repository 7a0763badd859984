// Command apikey provisions a custodial wallet and its API key: it creates a
// new keystore account, generates a bearer key, and registers the binding in
// the read model database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/fylaro/fylaro-backend/pkg/gateway/auth"
	"github.com/fylaro/fylaro-backend/pkg/logging"
	"github.com/fylaro/fylaro-backend/pkg/readmodel"
)

func main() {
	var (
		keystoreDir string
		dbPath      string
		passphrase  string
		label       string
	)
	flag.StringVar(&keystoreDir, "keystore", "keystore", "Keystore directory")
	flag.StringVar(&dbPath, "db", "fylaro.db", "Read model database path")
	flag.StringVar(&passphrase, "passphrase", os.Getenv("FYLARO_KEYSTORE_PASSPHRASE"), "Keystore passphrase")
	flag.StringVar(&label, "label", "", "Optional label for the API key")
	flag.Parse()

	if passphrase == "" {
		fmt.Fprintln(os.Stderr, "Passphrase is required (flag -passphrase or FYLARO_KEYSTORE_PASSPHRASE)")
		os.Exit(1)
	}

	logger, err := logging.NewColoredLogger(logging.ComponentAuth, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	store, err := readmodel.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	account, err := ks.NewAccount(passphrase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create keystore account: %v\n", err)
		os.Exit(1)
	}

	key, err := auth.NewAPIKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate API key: %v\n", err)
		os.Exit(1)
	}

	if err := store.InsertAPIKey(context.Background(), key, account.Address.Hex(), label); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wallet:  %s\n", account.Address.Hex())
	fmt.Printf("API key: %s\n", key)
}
