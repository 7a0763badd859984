package chain

import (
	"context"
	stderrors "errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// recordingSink captures dispatched events and can be told to fail a call.
type recordingSink struct {
	mu       sync.Mutex
	created  []InvoiceCreatedEvent
	traded   []InvoiceTradedEvent
	failOnce bool
	notify   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 16)}
}

func (s *recordingSink) HandleInvoiceCreated(ctx context.Context, ev InvoiceCreatedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, ev)
	s.notify <- struct{}{}
	if s.failOnce {
		s.failOnce = false
		return stderrors.New("sink failure")
	}
	return nil
}

func (s *recordingSink) HandleInvoiceTraded(ctx context.Context, ev InvoiceTradedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.traded = append(s.traded, ev)
	s.notify <- struct{}{}
	return nil
}

func (s *recordingSink) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.notify:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
}

func makeCreatedLog(t *testing.T, tokenID int64, issuer common.Address, amount int64) types.Log {
	t.Helper()
	ev := invoiceTokenABI.Events[EventInvoiceCreated]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(amount))
	if err != nil {
		t.Fatalf("failed to pack event data: %v", err)
	}
	return types.Log{
		Address: testContractAddr,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(big.NewInt(tokenID)),
			common.BytesToHash(issuer.Bytes()),
		},
		Data:        data,
		BlockNumber: 10,
		TxHash:      common.HexToHash("0xaaaa"),
		Index:       1,
	}
}

func makeTradedLog(t *testing.T, tokenID int64, from, to common.Address, price int64) types.Log {
	t.Helper()
	ev := invoiceTokenABI.Events[EventInvoiceTraded]
	data, err := ev.Inputs.NonIndexed().Pack(from, to, big.NewInt(price))
	if err != nil {
		t.Fatalf("failed to pack event data: %v", err)
	}
	return types.Log{
		Address: testContractAddr,
		Topics: []common.Hash{
			ev.ID,
			common.BigToHash(big.NewInt(tokenID)),
		},
		Data:        data,
		BlockNumber: 11,
		TxHash:      common.HexToHash("0xbbbb"),
		Index:       2,
	}
}

// waitForSubscriptions blocks until the client has registered n event
// subscriptions on the fake backend. Watching starts asynchronously.
func waitForSubscriptions(t *testing.T, backend *fakeBackend, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		backend.mu.Lock()
		count := len(backend.subs)
		backend.mu.Unlock()
		if count >= n {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscriptions, have %d", n, count)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEventDispatch(t *testing.T) {
	backend := newFakeBackend()
	sink := newRecordingSink()
	newTestClient(t, backend, sink)
	waitForSubscriptions(t, backend, 2)

	issuer := common.HexToAddress("0x2222222222222222222222222222222222222222")
	buyer := common.HexToAddress("0x3333333333333333333333333333333333333333")

	backend.push(makeCreatedLog(t, 7, issuer, 150_000))
	backend.push(makeTradedLog(t, 7, issuer, buyer, 140_000))
	sink.wait(t, 2)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(sink.created))
	}
	got := sink.created[0]
	if got.TokenID.Int64() != 7 || got.Issuer != issuer || got.Amount.Int64() != 150_000 {
		t.Errorf("unexpected created event: %+v", got)
	}
	if got.TxHash == "" || got.BlockNumber != 10 {
		t.Errorf("expected log metadata on event: %+v", got)
	}

	if len(sink.traded) != 1 {
		t.Fatalf("expected 1 traded event, got %d", len(sink.traded))
	}
	trade := sink.traded[0]
	if trade.TokenID.Int64() != 7 || trade.From != issuer || trade.To != buyer || trade.Price.Int64() != 140_000 {
		t.Errorf("unexpected traded event: %+v", trade)
	}
}

func TestSinkFailureDoesNotKillSubscription(t *testing.T) {
	backend := newFakeBackend()
	sink := newRecordingSink()
	sink.failOnce = true
	newTestClient(t, backend, sink)
	waitForSubscriptions(t, backend, 2)

	issuer := common.HexToAddress("0x2222222222222222222222222222222222222222")

	backend.push(makeCreatedLog(t, 1, issuer, 100))
	backend.push(makeCreatedLog(t, 2, issuer, 200))
	sink.wait(t, 2)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.created) != 2 {
		t.Fatalf("expected both events delivered despite sink failure, got %d", len(sink.created))
	}
	if sink.created[1].TokenID.Int64() != 2 {
		t.Errorf("unexpected second event: %+v", sink.created[1])
	}
}
