// Package gateway exposes the invoice marketplace over HTTP. It is a thin
// adapter: routes validate input, delegate to the contract client, and map
// the error taxonomy onto HTTP statuses. All durable state lives on-chain.
package gateway

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/chain"
	"github.com/fylaro/fylaro-backend/pkg/gateway/auth"
	"github.com/fylaro/fylaro-backend/pkg/logging"
	"github.com/fylaro/fylaro-backend/pkg/readmodel"
)

// InvoiceService is the contract-client surface the route layer depends on.
// *chain.Client implements it; tests substitute a recording fake.
type InvoiceService interface {
	CreateInvoice(ctx context.Context, amount *big.Int, dueDate int64, metadata string, wallet chain.Wallet) (*chain.PendingTx, error)
	ListInvoice(ctx context.Context, tokenID uint64, price *big.Int, wallet chain.Wallet) (*chain.PendingTx, error)
	BuyInvoice(ctx context.Context, tokenID uint64, wallet chain.Wallet) (*chain.PendingTx, error)
	VerifyInvoice(ctx context.Context, tokenID uint64, wallet chain.Wallet) (*chain.PendingTx, error)
	AddVerifiedIssuer(ctx context.Context, issuer common.Address, wallet chain.Wallet) (*chain.PendingTx, error)
	UpdatePlatformFee(ctx context.Context, feeBps *big.Int, wallet chain.Wallet) (*chain.PendingTx, error)
	UpdateVerificationFee(ctx context.Context, fee *big.Int, wallet chain.Wallet) (*chain.PendingTx, error)
	GetInvoiceDetails(ctx context.Context, tokenID uint64) (*chain.Invoice, error)
	GetUserInvoices(ctx context.Context, owner common.Address) ([]chain.Invoice, error)
	GetMarketplaceListings(ctx context.Context, page, limit int) ([]chain.Listing, error)
}

// Authenticator resolves bearer tokens to caller identities.
// *auth.Service implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// Gateway is the HTTP front of the system. It owns no chain state; the
// injected InvoiceService does.
type Gateway struct {
	logger      *logging.ColoredLogger
	cfg         *Config
	invoices    InvoiceService
	authSvc     Authenticator
	store       *readmodel.Store
	hub         *EventHub
	rateLimiter *RateLimiter
	startedAt   time.Time
}

// New creates a Gateway over the injected collaborators. store and hub may
// be nil; the routes that need them degrade to 503.
func New(logger *logging.ColoredLogger, cfg *Config, invoices InvoiceService, authSvc Authenticator, store *readmodel.Store, hub *EventHub) *Gateway {
	g := &Gateway{
		logger:    logger,
		cfg:       cfg,
		invoices:  invoices,
		authSvc:   authSvc,
		store:     store,
		hub:       hub,
		startedAt: time.Now(),
	}

	if cfg.RateLimitPerMinute > 0 {
		g.rateLimiter = NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
		g.rateLimiter.StartCleanup(5*time.Minute, 15*time.Minute)
	}

	logger.ComponentInfo(logging.ComponentGateway, "gateway created",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Bool("rate_limited", g.rateLimiter != nil),
	)
	return g
}
