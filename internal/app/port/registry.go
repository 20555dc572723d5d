package port

import "swap_gateway/internal/domain/entity"

// ChainRegistry is the static lookup from chain id to network configuration.
type ChainRegistry interface {
	// ByChainID returns the configuration for the given chain id. Unknown ids
	// return the default network's configuration with exact=false so callers
	// can surface a "switch network" prompt instead of failing.
	ByChainID(chainID uint64) (def entity.NetworkDefinition, exact bool)

	// All returns every supported network definition.
	All() []entity.NetworkDefinition

	// DefaultChainID returns the chain id used when the requested one is unknown.
	DefaultChainID() uint64

	// TokenMetadata returns the display metadata for a symbol, if known.
	TokenMetadata(symbol string) (entity.TokenMetadata, bool)

	// SymbolByAddress resolves a token contract address (or the native
	// sentinel) to its symbol on the given network.
	SymbolByAddress(def entity.NetworkDefinition, address string) (string, bool)
}
