package port

import (
	"context"

	"swap_gateway/internal/domain/entity"
)

// Wallet abstracts the transaction-submission side of the external wallet.
// It is passed explicitly to the executor, never held as a package singleton,
// so tests can substitute a mock session.
type Wallet interface {
	Address() string
	ChainID() uint64
	Status() entity.ConnectionStatus

	// SubmitTransaction signs and submits the request, returning the
	// transaction hash. A declined signature surfaces as
	// entity.ErrUserRejected.
	SubmitTransaction(ctx context.Context, req entity.TxRequest) (string, error)
}

// WalletConnector is the externally owned connection lifecycle. The session
// layer mirrors its signals and has no authority to force transitions other
// than requesting a disconnect.
type WalletConnector interface {
	// Signals emits connector state changes until the connector is closed.
	Signals() <-chan entity.ConnectorSignal

	// Disconnect asks the connector to tear the session down. Confirmation
	// arrives later as a signal.
	Disconnect(ctx context.Context) error
}
