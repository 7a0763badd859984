package auth

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"

	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
	"github.com/fylaro/fylaro-backend/pkg/readmodel"
)

const testPassphrase = "test-passphrase"

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	logger, err := logging.NewColoredLogger(logging.ComponentAuth, false)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	store, err := readmodel.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ks := keystore.NewKeyStore(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
	account, err := ks.NewAccount(testPassphrase)
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	svc, err := NewService(logger, store, ks, testPassphrase)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if err := svc.Bootstrap(context.Background(), []KeyEntry{
		{Key: "ak_valid", Wallet: account.Address.Hex(), Label: "test"},
	}); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	return svc, account.Address.Hex()
}

func TestAuthenticateValidKey(t *testing.T) {
	svc, wallet := newTestService(t)

	id, err := svc.Authenticate(context.Background(), "ak_valid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.Address.Hex() != wallet {
		t.Errorf("expected wallet %s, got %s", wallet, id.Address.Hex())
	}
	if id.Wallet == nil {
		t.Fatal("identity must carry a signing capability")
	}

	opts, err := id.Wallet.TransactOpts(big.NewInt(421614))
	if err != nil {
		t.Fatalf("failed to build transact opts: %v", err)
	}
	if opts.From != id.Address {
		t.Errorf("transact opts bound to wrong address: %s", opts.From.Hex())
	}
	if opts.Signer == nil {
		t.Error("transact opts must carry a signer")
	}
}

func TestAuthenticateUnknownKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "ak_bogus")
	if !errors.IsUnauthorized(err) {
		t.Errorf("expected UnauthorizedError, got %v", err)
	}
}

func TestAuthenticateEmptyToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "   ")
	if !errors.IsUnauthorized(err) {
		t.Errorf("expected UnauthorizedError for blank token, got %v", err)
	}
}

func TestAuthenticateKeyWithoutKeystoreAccount(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.Bootstrap(context.Background(), []KeyEntry{
		{Key: "ak_orphan", Wallet: "0x9999999999999999999999999999999999999999"},
	}); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	_, err := svc.Authenticate(context.Background(), "ak_orphan")
	if !errors.IsUnauthorized(err) {
		t.Errorf("expected UnauthorizedError when no signing key exists, got %v", err)
	}
}

func TestNewAPIKeyShape(t *testing.T) {
	key, err := NewAPIKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "ak_") || len(key) < 20 {
		t.Errorf("unexpected key shape: %s", key)
	}

	other, _ := NewAPIKey()
	if key == other {
		t.Error("keys must be random")
	}
}
