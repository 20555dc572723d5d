package service

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// recordingNotifier counts notifications per kind so tests can assert which
// transitions were surfaced.
type notifierCounts struct {
	estimating       int
	estimationFailed int
	swapping         int
	approving        int
	confirming       int
	success          int
	failed           int
	timedOut         int
	mismatch         int
}

type recordingNotifier struct {
	mu sync.Mutex
	notifierCounts
}

func (n *recordingNotifier) bump(counter *int) {
	n.mu.Lock()
	*counter++
	n.mu.Unlock()
}

func (n *recordingNotifier) Estimating()                 { n.bump(&n.estimating) }
func (n *recordingNotifier) EstimationFailed(string)     { n.bump(&n.estimationFailed) }
func (n *recordingNotifier) Swapping()                   { n.bump(&n.swapping) }
func (n *recordingNotifier) Approving(string, uint64)    { n.bump(&n.approving) }
func (n *recordingNotifier) Confirming(string, uint64)   { n.bump(&n.confirming) }
func (n *recordingNotifier) Success(string, uint64)      { n.bump(&n.success) }
func (n *recordingNotifier) Failed(string)               { n.bump(&n.failed) }
func (n *recordingNotifier) TimedOut(string, uint64)     { n.bump(&n.timedOut) }
func (n *recordingNotifier) NetworkMismatch(_, _ uint64) { n.bump(&n.mismatch) }
func (n *recordingNotifier) Active() []entity.Notice     { return nil }
func (n *recordingNotifier) Dismiss(uint64)              {}

func (n *recordingNotifier) counts() notifierCounts {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.notifierCounts
}

// stubPrices serves a fixed snapshot and records whether it was consulted.
type stubPrices struct {
	mu       sync.Mutex
	sources  entity.PriceSources
	consults int
}

func (p *stubPrices) Snapshot() entity.PriceSources {
	p.mu.Lock()
	p.consults++
	p.mu.Unlock()
	return p.sources
}

func (p *stubPrices) Refresh(context.Context) error { return nil }

func (p *stubPrices) consulted() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consults
}

// fakeChainClient is a scripted port.ChainClient.
type fakeChainClient struct {
	def      entity.NetworkDefinition
	precheck entity.SwapPrecheck

	mu       sync.Mutex
	receipts []*entity.ReceiptInfo // popped per poll; nil entry = not mined yet
}

func (c *fakeChainClient) SwapPrecheck(context.Context, string, string, string) (entity.SwapPrecheck, error) {
	return c.precheck, nil
}

func (c *fakeChainClient) GetAmountsOut(context.Context, string, *big.Int, []string) ([]*big.Int, error) {
	return nil, context.DeadlineExceeded
}

func (c *fakeChainClient) TransactionReceipt(context.Context, string) (*entity.ReceiptInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.receipts) == 0 {
		return nil, nil
	}
	receipt := c.receipts[0]
	if len(c.receipts) > 1 {
		c.receipts = c.receipts[1:]
	}
	return receipt, nil
}

func (c *fakeChainClient) Definition() entity.NetworkDefinition { return c.def }

type fakeClientProvider struct {
	client port.ChainClient
}

func (p *fakeClientProvider) GetClient(entity.NetworkDefinition) (port.ChainClient, error) {
	return p.client, nil
}

// fakeWallet records submitted requests and hands out sequential hashes.
type fakeWallet struct {
	mu        sync.Mutex
	status    entity.ConnectionStatus
	address   string
	chainID   uint64
	submitted []entity.TxRequest
	submitErr error
	hashSeq   int
}

func (w *fakeWallet) Address() string                 { return w.address }
func (w *fakeWallet) ChainID() uint64                 { return w.chainID }
func (w *fakeWallet) Status() entity.ConnectionStatus { return w.status }

func (w *fakeWallet) SubmitTransaction(_ context.Context, req entity.TxRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitErr != nil {
		return "", w.submitErr
	}
	w.submitted = append(w.submitted, req)
	w.hashSeq++
	return fmt.Sprintf("0xhash%d", w.hashSeq), nil
}

func (w *fakeWallet) requests() []entity.TxRequest {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]entity.TxRequest, len(w.submitted))
	copy(out, w.submitted)
	return out
}

// fakeConnector drives the session service from tests.
type fakeConnector struct {
	signals     chan entity.ConnectorSignal
	mu          sync.Mutex
	disconnects int
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{signals: make(chan entity.ConnectorSignal, 8)}
}

func (c *fakeConnector) Signals() <-chan entity.ConnectorSignal { return c.signals }

func (c *fakeConnector) Disconnect(context.Context) error {
	c.mu.Lock()
	c.disconnects++
	c.mu.Unlock()
	return nil
}

func (c *fakeConnector) disconnectCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnects
}
