package port

import (
	"context"
	"math/big"

	"swap_gateway/internal/domain/entity"
)

// ChainClient defines the read surface against a blockchain network.
// Implementations are specific to network types (EVM here).
type ChainClient interface {
	// SwapPrecheck batches the reads needed before submitting a swap: the
	// router allowance for tokenIn (skipped when tokenIn is the native
	// sentinel) plus the wallet's token and native balances.
	SwapPrecheck(ctx context.Context, owner, tokenIn, spender string) (entity.SwapPrecheck, error)

	// GetAmountsOut performs the router's quote read for the given path.
	// amounts[len(path)-1] is the projected output in smallest units.
	GetAmountsOut(ctx context.Context, router string, amountIn *big.Int, path []string) ([]*big.Int, error)

	// TransactionReceipt returns the receipt state for a submitted hash.
	// A nil info with nil error means the transaction is not yet mined.
	TransactionReceipt(ctx context.Context, hash string) (*entity.ReceiptInfo, error)

	// Definition returns the network definition associated with this client.
	Definition() entity.NetworkDefinition
}

// ChainClientProvider hands out (cached) chain clients per network.
type ChainClientProvider interface {
	GetClient(def entity.NetworkDefinition) (ChainClient, error)
}
