package service

import (
	"context"
	"sync"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/pkg/utils"
)

// SessionServiceImpl implements port.SessionService. It mirrors the
// externally owned connector state: every confirmed transition arrives as a
// connector signal, and the only locally initiated change is the optimistic
// disconnect, surfaced as a pending status until the connector confirms it.
type SessionServiceImpl struct {
	connector      port.WalletConnector
	clientProvider port.ChainClientProvider
	registry       port.ChainRegistry
	swaps          port.SwapService
	logger         port.Logger

	mu      sync.Mutex
	session entity.WalletSession
}

// NewSessionService creates a new SessionServiceImpl.
func NewSessionService(
	connector port.WalletConnector,
	clientProvider port.ChainClientProvider,
	registry port.ChainRegistry,
	swaps port.SwapService,
	log port.Logger,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		connector:      connector,
		clientProvider: clientProvider,
		registry:       registry,
		swaps:          swaps,
		logger:         log,
		session: entity.WalletSession{
			Status: entity.StatusDisconnected,
		},
	}
}

// Run consumes connector signals until the context is cancelled or the
// connector closes its channel. Each signal is the confirmed truth: it
// replaces the confirmed status and clears any pending transition.
func (s *SessionServiceImpl) Run(ctx context.Context) {
	signals := s.connector.Signals()
	for {
		select {
		case <-ctx.Done():
			return
		case signal, open := <-signals:
			if !open {
				s.logger.Info("Wallet connector closed")
				return
			}
			s.apply(ctx, signal)
		}
	}
}

func (s *SessionServiceImpl) apply(ctx context.Context, signal entity.ConnectorSignal) {
	s.mu.Lock()
	s.session.Status = signal.Status
	s.session.Address = signal.Address
	s.session.ChainID = signal.ChainID
	s.session.LastError = signal.Err
	s.session.PendingStatus = nil
	if signal.Status != entity.StatusConnected {
		s.session.NativeBalance = ""
	}
	s.mu.Unlock()

	s.logger.Info("Wallet session updated",
		"status", signal.Status,
		"address", signal.Address,
		"chainId", signal.ChainID)

	if signal.Status == entity.StatusConnected {
		s.refreshNativeBalance(ctx, signal)
	}
}

// refreshNativeBalance reads and formats the wallet's native balance. A read
// failure leaves the balance empty; the session itself stays connected.
func (s *SessionServiceImpl) refreshNativeBalance(ctx context.Context, signal entity.ConnectorSignal) {
	def, _ := s.registry.ByChainID(signal.ChainID)
	chainClient, err := s.clientProvider.GetClient(def)
	if err != nil {
		s.logger.Warn("Native balance unavailable, no chain client", "network", def.Name, "error", err)
		return
	}

	precheck, err := chainClient.SwapPrecheck(ctx, signal.Address, entity.ZeroAddress, "")
	if err != nil {
		s.logger.Warn("Native balance read failed", "address", signal.Address, "error", err)
		return
	}

	formatted, err := utils.FormatBigInt(precheck.NativeBalance, def.NativeDecimals)
	if err != nil {
		s.logger.Warn("Native balance formatting failed", "error", err)
		return
	}

	s.mu.Lock()
	if s.session.Address == signal.Address && s.session.Status == entity.StatusConnected {
		s.session.NativeBalance = formatted
	}
	s.mu.Unlock()
}

// Session returns a copy of the current session state.
func (s *SessionServiceImpl) Session(_ context.Context) entity.WalletSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.session
	if s.session.PendingStatus != nil {
		pending := *s.session.PendingStatus
		out.PendingStatus = &pending
	}
	return out
}

// Disconnect asks the connector to tear the session down and optimistically
// records the transition as pending. The confirmed status stays untouched
// until the connector's own signal arrives and reconciles it.
func (s *SessionServiceImpl) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	pending := entity.StatusDisconnected
	s.session.PendingStatus = &pending
	s.mu.Unlock()

	// A disconnect abandons any confirmation watchers; they must go quiet.
	if s.swaps != nil {
		s.swaps.CancelWatchers()
	}

	if err := s.connector.Disconnect(ctx); err != nil {
		s.logger.Error("Connector disconnect request failed", "error", err)
		return err
	}
	s.logger.Info("Disconnect requested, awaiting connector confirmation")
	return nil
}
