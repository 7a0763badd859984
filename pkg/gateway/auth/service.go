// Package auth validates bearer API keys and attaches a caller identity,
// including the signing capability needed to authorize state-changing chain
// calls, to the request context.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
	"github.com/fylaro/fylaro-backend/pkg/readmodel"
)

// Identity is the authenticated caller for one request. Wallet is the
// signing capability used to authorize state-changing calls on the caller's
// behalf.
type Identity struct {
	APIKey  string
	Address common.Address
	Wallet  chain.Wallet
}

// KeyEntry is a bootstrap API key binding from configuration.
type KeyEntry struct {
	Key    string `yaml:"key"`
	Wallet string `yaml:"wallet"`
	Label  string `yaml:"label"`
}

// Service handles authentication business logic: API key lookup and wallet
// resolution against the custodial keystore.
type Service struct {
	logger *logging.ColoredLogger
	store  *readmodel.Store
	ks     *keystore.KeyStore
}

// NewService creates an auth service over the given key store. Every
// keystore account is unlocked with passphrase up front so per-request
// signing never blocks on scrypt.
func NewService(logger *logging.ColoredLogger, store *readmodel.Store, ks *keystore.KeyStore, passphrase string) (*Service, error) {
	for _, acct := range ks.Accounts() {
		if err := ks.Unlock(acct, passphrase); err != nil {
			return nil, errors.NewConfigError("keystore", "failed to unlock account "+acct.Address.Hex())
		}
	}

	logger.ComponentInfo(logging.ComponentAuth, "auth service ready",
		zap.Int("keystore_accounts", len(ks.Accounts())),
	)
	return &Service{logger: logger, store: store, ks: ks}, nil
}

// Bootstrap registers configured API keys, ignoring ones already present.
func (s *Service) Bootstrap(ctx context.Context, entries []KeyEntry) error {
	for _, e := range entries {
		key := strings.TrimSpace(e.Key)
		wallet := strings.TrimSpace(e.Wallet)
		if key == "" || wallet == "" {
			return errors.NewConfigError("api_keys", "api key entries need both key and wallet")
		}
		if err := s.store.InsertAPIKey(ctx, key, common.HexToAddress(wallet).Hex(), e.Label); err != nil {
			return err
		}
	}
	return nil
}

// Authenticate resolves a bearer token to a caller identity. The identity is
// valid for the lifetime of one request.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.NewUnauthorizedError("missing API key")
	}

	walletHex, err := s.store.LookupAPIKey(ctx, token)
	if err != nil {
		return nil, err
	}
	address := common.HexToAddress(walletHex)

	account, err := s.findAccount(address)
	if err != nil {
		return nil, err
	}

	s.store.TouchAPIKey(ctx, token)

	return &Identity{
		APIKey:  token,
		Address: address,
		Wallet:  &keystoreWallet{ks: s.ks, account: account},
	}, nil
}

func (s *Service) findAccount(address common.Address) (accounts.Account, error) {
	for _, acct := range s.ks.Accounts() {
		if acct.Address == address {
			return acct, nil
		}
	}
	s.logger.ComponentWarn(logging.ComponentAuth, "api key maps to wallet with no keystore account",
		zap.String("wallet", address.Hex()),
	)
	return accounts.Account{}, errors.NewUnauthorizedError("no signing key for wallet")
}

// NewAPIKey generates a URL-safe random API key.
func NewAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "ak_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// keystoreWallet signs through an unlocked keystore account.
type keystoreWallet struct {
	ks      *keystore.KeyStore
	account accounts.Account
}

func (w *keystoreWallet) Address() common.Address {
	return w.account.Address
}

func (w *keystoreWallet) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyStoreTransactorWithChainID(w.ks, w.account, chainID)
}
