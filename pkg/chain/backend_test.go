package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// fakeBackend implements bind.ContractBackend against in-memory contract
// state. It records submitted transactions without serializing callers.
type fakeBackend struct {
	mu sync.Mutex

	invoices    map[uint64]fakeInvoice
	listings    map[uint64]fakeListing
	userTokens  map[common.Address][]uint64
	totalSupply uint64

	sent    []*types.Transaction
	sendErr error

	subs []fakeSub
}

type fakeSub struct {
	ch     chan<- types.Log
	topic0 *common.Hash
}

type fakeInvoice struct {
	amount     *big.Int
	dueDate    *big.Int
	metadata   string
	issuer     common.Address
	isVerified bool
}

type fakeListing struct {
	seller common.Address
	price  *big.Int
	active bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		invoices:   map[uint64]fakeInvoice{},
		listings:   map[uint64]fakeListing{},
		userTokens: map[common.Address][]uint64{},
	}
}

func (b *fakeBackend) sentTxs() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*types.Transaction, len(b.sent))
	copy(out, b.sent)
	return out
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, errors.New("malformed call data")
	}
	method, err := invoiceTokenABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(call.Data[4:])
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch method.Name {
	case methodInvoices:
		id := args[0].(*big.Int).Uint64()
		inv := b.invoices[id] // zero value when absent
		if inv.amount == nil {
			inv.amount = big.NewInt(0)
		}
		if inv.dueDate == nil {
			inv.dueDate = big.NewInt(0)
		}
		return method.Outputs.Pack(inv.amount, inv.dueDate, inv.metadata, inv.issuer, inv.isVerified)
	case methodListings:
		id := args[0].(*big.Int).Uint64()
		lst := b.listings[id]
		if lst.price == nil {
			lst.price = big.NewInt(0)
		}
		return method.Outputs.Pack(lst.seller, lst.price, lst.active)
	case methodGetUserInvoices:
		owner := args[0].(common.Address)
		ids := make([]*big.Int, 0, len(b.userTokens[owner]))
		for _, id := range b.userTokens[owner] {
			ids = append(ids, new(big.Int).SetUint64(id))
		}
		return method.Outputs.Pack(ids)
	case methodTotalSupply:
		return method.Outputs.Pack(new(big.Int).SetUint64(b.totalSupply))
	default:
		return nil, errors.New("unexpected call: " + method.Name)
	}
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{
		Number:     big.NewInt(1),
		Difficulty: big.NewInt(0),
		BaseFee:    big.NewInt(1),
	}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return 0, nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := fakeSub{ch: ch}
	if len(query.Topics) > 0 && len(query.Topics[0]) > 0 {
		topic := query.Topics[0][0]
		sub.topic0 = &topic
	}
	b.subs = append(b.subs, sub)
	return &fakeSubscription{errc: make(chan error)}, nil
}

// push delivers a log to every subscription whose topic filter matches.
func (b *fakeBackend) push(lg types.Log) {
	b.mu.Lock()
	subs := make([]fakeSub, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, sub := range subs {
		if sub.topic0 != nil && (len(lg.Topics) == 0 || lg.Topics[0] != *sub.topic0) {
			continue
		}
		sub.ch <- lg
	}
}

type fakeSubscription struct {
	errc chan error
	once sync.Once
}

func (s *fakeSubscription) Unsubscribe() {
	s.once.Do(func() { close(s.errc) })
}

func (s *fakeSubscription) Err() <-chan error {
	return s.errc
}
