// Package chain is the single point of contact between the gateway and the
// on-chain InvoiceToken contract. It owns the RPC connection lifecycle, the
// bound contract handle, and the contract event subscriptions.
package chain

import (
	"context"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/fylaro/fylaro-backend/pkg/deployments"
	"github.com/fylaro/fylaro-backend/pkg/errors"
	"github.com/fylaro/fylaro-backend/pkg/logging"
)

// Default timeouts per operation class. A stalled provider must not hold a
// request open indefinitely.
const (
	DefaultReadTimeout   = 10 * time.Second
	DefaultSubmitTimeout = 30 * time.Second
)

// Config holds the contract client configuration.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the network provider. Required; its
	// absence fails initialization loudly.
	RPCURL string

	// AddressBookPath is the path of the deployment address record.
	AddressBookPath string

	// ChainID identifies the network for transaction signing
	// (Arbitrum Sepolia is 421614).
	ChainID int64

	// ReadTimeout bounds a single read-only chain query.
	ReadTimeout time.Duration

	// SubmitTimeout bounds a state-changing submission.
	SubmitTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = DefaultReadTimeout
	}
	if out.SubmitTimeout <= 0 {
		out.SubmitTimeout = DefaultSubmitTimeout
	}
	return out
}

// Client talks to the InvoiceToken contract through a JSON-RPC provider.
// Exactly one Client exists per process; it is constructed explicitly and
// injected into the HTTP layer. Initialization runs asynchronously: every
// operation awaits it and returns NotInitializedError if it failed, never a
// nil dereference.
type Client struct {
	logger  *logging.ColoredLogger
	cfg     Config
	sink    EventSink
	chainID *big.Int

	ready   chan struct{}
	initErr error

	book     *deployments.AddressBook
	address  common.Address
	backend  bind.ContractBackend
	contract *bind.BoundContract
	eth      *ethclient.Client

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

// New creates a contract client and starts its initialization in the
// background: resolve the address book, dial the provider, bind the contract
// handle, and register event subscriptions. The returned client is usable
// immediately; operations block until initialization settles.
func New(cfg Config, logger *logging.ColoredLogger, sink EventSink) *Client {
	c := &Client{
		logger:  logger,
		cfg:     cfg.withDefaults(),
		sink:    sink,
		chainID: big.NewInt(cfg.ChainID),
		ready:   make(chan struct{}),
	}

	go c.initialize()
	return c
}

// NewWithBackend creates a client bound to an already-connected backend and
// contract address, skipping address resolution and dialing. The application
// startup sequence and tests use this to substitute backends.
func NewWithBackend(cfg Config, logger *logging.ColoredLogger, sink EventSink, backend bind.ContractBackend, address common.Address) *Client {
	c := &Client{
		logger:   logger,
		cfg:      cfg.withDefaults(),
		sink:     sink,
		chainID:  big.NewInt(cfg.ChainID),
		ready:    make(chan struct{}),
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, invoiceTokenABI, backend, backend, backend),
	}
	close(c.ready)
	c.startWatching()
	return c
}

func (c *Client) initialize() {
	defer close(c.ready)

	if c.cfg.RPCURL == "" {
		c.initErr = errors.NewConfigError("rpc_url", "RPC endpoint URL is not configured")
		c.logger.ComponentError(logging.ComponentChain, "contract client initialization failed", zap.Error(c.initErr))
		return
	}

	book, err := deployments.Load(c.cfg.AddressBookPath)
	if err != nil {
		c.initErr = err
		c.logger.ComponentError(logging.ComponentChain, "contract client initialization failed", zap.Error(err))
		return
	}
	c.book = book

	dialCtx, cancel := context.WithTimeout(context.Background(), c.cfg.SubmitTimeout)
	defer cancel()
	eth, err := ethclient.DialContext(dialCtx, c.cfg.RPCURL)
	if err != nil {
		c.initErr = err
		c.logger.ComponentError(logging.ComponentChain, "failed to connect to RPC provider", zap.Error(err))
		return
	}

	c.eth = eth
	c.backend = eth
	c.address = common.HexToAddress(book.InvoiceToken())
	c.contract = bind.NewBoundContract(c.address, invoiceTokenABI, eth, eth, eth)

	c.logger.ComponentInfo(logging.ComponentChain, "contract client initialized",
		zap.String("invoice_token", c.address.Hex()),
		zap.Int64("chain_id", c.cfg.ChainID),
		zap.Int("known_contracts", len(book.Names())),
	)

	c.startWatching()
}

// await blocks until initialization settles. It returns NotInitializedError
// when initialization failed or has not completed within the caller's
// deadline.
func (c *Client) await(ctx context.Context) error {
	select {
	case <-c.ready:
		if c.initErr != nil {
			return errors.NewNotInitializedError(c.initErr)
		}
		return nil
	case <-ctx.Done():
		return errors.NewNotInitializedError(ctx.Err())
	}
}

// AddressBook returns the resolved deployment address book, or nil before
// initialization completes.
func (c *Client) AddressBook() *deployments.AddressBook {
	select {
	case <-c.ready:
		return c.book
	default:
		return nil
	}
}

// Close stops event subscriptions and releases the RPC connection.
func (c *Client) Close() {
	if c.watchCancel != nil {
		c.watchCancel()
	}
	c.wg.Wait()
	if c.eth != nil {
		c.eth.Close()
	}
}

// submit sends a state-changing call with the method's gas ceiling and the
// caller's signing capability, returning the transaction hash without
// waiting for confirmation.
func (c *Client) submit(ctx context.Context, wallet Wallet, method string, value *big.Int, args ...interface{}) (*PendingTx, error) {
	if err := c.await(ctx); err != nil {
		return nil, err
	}

	opts, err := wallet.TransactOpts(c.chainID)
	if err != nil {
		return nil, errors.NewInternalError("failed to build transaction signer", err)
	}

	subCtx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()

	opts.Context = subCtx
	opts.GasLimit = gasCeilings[method]
	opts.Value = value

	tx, err := c.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, classifySubmission(method, err)
	}

	c.logger.ComponentInfo(logging.ComponentChain, "transaction submitted",
		zap.String("method", method),
		zap.String("tx_hash", tx.Hash().Hex()),
		zap.String("from", wallet.Address().Hex()),
	)

	return &PendingTx{Hash: tx.Hash().Hex()}, nil
}

// call performs a single read-only contract query with the read timeout.
func (c *Client) call(ctx context.Context, method string, out *[]interface{}, args ...interface{}) error {
	readCtx, cancel := context.WithTimeout(ctx, c.cfg.ReadTimeout)
	defer cancel()

	opts := &bind.CallOpts{Context: readCtx}
	if err := c.contract.Call(opts, out, method, args...); err != nil {
		return classifyRead(method, err)
	}
	return nil
}

// CreateInvoice submits a createInvoice call for the caller. Validation of
// amount, due date, and metadata happens at the HTTP layer; the contract is
// the final arbiter.
func (c *Client) CreateInvoice(ctx context.Context, amount *big.Int, dueDate int64, metadata string, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodCreateInvoice, nil, amount, big.NewInt(dueDate), metadata)
}

// ListInvoice submits a listInvoice call putting tokenID up for sale at
// price. This layer deliberately does not check that the caller owns the
// token or that the price is positive beyond basic input validation: the
// contract enforces ownership and listing rules.
func (c *Client) ListInvoice(ctx context.Context, tokenID uint64, price *big.Int, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodListInvoice, nil, new(big.Int).SetUint64(tokenID), price)
}

// BuyInvoice reads the current listing for tokenID and submits a purchase
// attaching the listed price as the transferred value. Between the read and
// the submission the listing may change; the contract is the sole arbiter
// and any resulting rejection surfaces as SubmissionError, never as a silent
// purchase at a stale price.
func (c *Client) BuyInvoice(ctx context.Context, tokenID uint64, wallet Wallet) (*PendingTx, error) {
	if err := c.await(ctx); err != nil {
		return nil, err
	}

	listing, err := c.readListing(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if !listing.Active {
		return nil, errors.NewNotFoundError("listing", strconv.FormatUint(tokenID, 10))
	}

	return c.submit(ctx, wallet, methodBuyInvoice, listing.Price, new(big.Int).SetUint64(tokenID))
}

// VerifyInvoice submits a verifyInvoice call for tokenID.
func (c *Client) VerifyInvoice(ctx context.Context, tokenID uint64, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodVerifyInvoice, nil, new(big.Int).SetUint64(tokenID))
}

// AddVerifiedIssuer submits an addVerifiedIssuer call. The contract enforces
// that only its owner may do this.
func (c *Client) AddVerifiedIssuer(ctx context.Context, issuer common.Address, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodAddVerifiedIssuer, nil, issuer)
}

// UpdatePlatformFee submits an updatePlatformFee call with the fee in basis
// points.
func (c *Client) UpdatePlatformFee(ctx context.Context, feeBps *big.Int, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodUpdatePlatformFee, nil, feeBps)
}

// UpdateVerificationFee submits an updateVerificationFee call.
func (c *Client) UpdateVerificationFee(ctx context.Context, fee *big.Int, wallet Wallet) (*PendingTx, error) {
	return c.submit(ctx, wallet, methodUpdateVerificationFee, nil, fee)
}

// GetInvoiceDetails queries the chain for the invoice record of tokenID.
// Exactly one chain read per call, no caching. A record with a zero issuer
// address is treated as nonexistent and returns NotFoundError.
func (c *Client) GetInvoiceDetails(ctx context.Context, tokenID uint64) (*Invoice, error) {
	if err := c.await(ctx); err != nil {
		return nil, err
	}
	return c.readInvoice(ctx, tokenID)
}

// GetUserInvoices returns every invoice issued to or held by owner. Each
// record is a fresh chain read.
func (c *Client) GetUserInvoices(ctx context.Context, owner common.Address) ([]Invoice, error) {
	if err := c.await(ctx); err != nil {
		return nil, err
	}

	var out []interface{}
	if err := c.call(ctx, methodGetUserInvoices, &out, owner); err != nil {
		return nil, err
	}
	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, errors.NewInternalError("unexpected getUserInvoices result shape", nil)
	}

	invoices := make([]Invoice, 0, len(ids))
	for _, id := range ids {
		inv, err := c.readInvoice(ctx, id.Uint64())
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, nil
}

// GetMarketplaceListings enumerates active listings in token-id order and
// returns the requested page. Page and limit are already normalized by the
// HTTP layer (page >= 1, 1 <= limit <= 100).
func (c *Client) GetMarketplaceListings(ctx context.Context, page, limit int) ([]Listing, error) {
	if err := c.await(ctx); err != nil {
		return nil, err
	}

	var out []interface{}
	if err := c.call(ctx, methodTotalSupply, &out); err != nil {
		return nil, err
	}
	supply, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.NewInternalError("unexpected totalSupply result shape", nil)
	}

	offset := (page - 1) * limit
	skipped := 0
	listings := make([]Listing, 0, limit)

	for id := uint64(1); id <= supply.Uint64(); id++ {
		listing, err := c.readListing(ctx, id)
		if err != nil {
			return nil, err
		}
		if !listing.Active {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		listings = append(listings, *listing)
		if len(listings) == limit {
			break
		}
	}
	return listings, nil
}

func (c *Client) readInvoice(ctx context.Context, tokenID uint64) (*Invoice, error) {
	var out []interface{}
	if err := c.call(ctx, methodInvoices, &out, new(big.Int).SetUint64(tokenID)); err != nil {
		return nil, err
	}
	if len(out) != 5 {
		return nil, errors.NewInternalError("unexpected invoices result shape", nil)
	}

	amount, _ := out[0].(*big.Int)
	dueDate, _ := out[1].(*big.Int)
	metadata, _ := out[2].(string)
	issuer, _ := out[3].(common.Address)
	isVerified, _ := out[4].(bool)

	if amount == nil || dueDate == nil {
		return nil, errors.NewInternalError("unexpected invoices result shape", nil)
	}
	if issuer == (common.Address{}) {
		return nil, errors.NewNotFoundError("invoice", strconv.FormatUint(tokenID, 10))
	}

	return &Invoice{
		TokenID:    tokenID,
		Amount:     amount,
		DueDate:    dueDate.Int64(),
		Metadata:   metadata,
		Issuer:     issuer.Hex(),
		IsVerified: isVerified,
	}, nil
}

func (c *Client) readListing(ctx context.Context, tokenID uint64) (*Listing, error) {
	var out []interface{}
	if err := c.call(ctx, methodListings, &out, new(big.Int).SetUint64(tokenID)); err != nil {
		return nil, err
	}
	if len(out) != 3 {
		return nil, errors.NewInternalError("unexpected listings result shape", nil)
	}

	seller, _ := out[0].(common.Address)
	price, _ := out[1].(*big.Int)
	active, _ := out[2].(bool)
	if price == nil {
		return nil, errors.NewInternalError("unexpected listings result shape", nil)
	}

	return &Listing{
		TokenID: tokenID,
		Seller:  seller.Hex(),
		Price:   price,
		Active:  active,
	}, nil
}
