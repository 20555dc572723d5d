package registry

import (
	"fmt"
	"strings"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"
)

// Predefined network definitions
var ( //nolint:gochecknoglobals // Global for definitions
	Ethereum = entity.NetworkDefinition{
		ChainID:              1,
		Name:                 "Ethereum Mainnet",
		Identifier:           "ethereum",
		NativeSymbol:         "ETH",
		NativeDecimals:       18,
		RouterAddress:        "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", // Uniswap V2 Router02
		WrappedNativeAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
		PrimaryRPCURL:        "https://ethereum-rpc.publicnode.com",
		FallbackRPCURLs:      []string{"https://rpc.ankr.com/eth", "https://ethereum.publicnode.com"},
		BlockExplorerURL:     "https://etherscan.io",
		Tokens: map[string]string{
			"ETH":  entity.ZeroAddress,
			"USDC": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			"WETH": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		},
	}
	Base = entity.NetworkDefinition{
		ChainID:              8453,
		Name:                 "Base Mainnet",
		Identifier:           "base",
		NativeSymbol:         "ETH",
		NativeDecimals:       18,
		RouterAddress:        "0x4752ba5DBc23f44D87826276BF6Fd6b1C372aD24", // Uniswap V2 Router02 on Base
		WrappedNativeAddress: "0x4200000000000000000000000000000000000006", // WETH on Base
		PrimaryRPCURL:        "https://1rpc.io/base",
		FallbackRPCURLs:      []string{"https://base.publicnode.com", "https://base.llamarpc.com"},
		BlockExplorerURL:     "https://basescan.org",
		Tokens: map[string]string{
			"ETH":  entity.ZeroAddress,
			"USDC": "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"WETH": "0x4200000000000000000000000000000000000006",
		},
	}
	Sepolia = entity.NetworkDefinition{
		ChainID:              11155111,
		Name:                 "Sepolia Testnet",
		Identifier:           "sepolia",
		NativeSymbol:         "ETH",
		NativeDecimals:       18,
		RouterAddress:        "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
		WrappedNativeAddress: "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14", // WETH on Sepolia
		PrimaryRPCURL:        "https://ethereum-sepolia-rpc.publicnode.com",
		FallbackRPCURLs:      []string{"https://rpc.sepolia.org"},
		BlockExplorerURL:     "https://sepolia.etherscan.io",
		Tokens: map[string]string{
			"ETH":  entity.ZeroAddress,
			"USDC": "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			"WETH": "0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14",
		},
	}
)

// tokenMetadata is the display metadata shared across networks.
var tokenMetadata = map[string]entity.TokenMetadata{ //nolint:gochecknoglobals // Global for definitions
	"ETH":  {Symbol: "ETH", Name: "Ethereum", Decimals: 18, Logo: "Ξ"},
	"USDC": {Symbol: "USDC", Name: "USD Coin", Decimals: 6, Logo: "\U0001F4B5"},
	"WETH": {Symbol: "WETH", Name: "Wrapped Ether", Decimals: 18, Logo: "Ξ"},
}

// ChainRegistryProvider implements port.ChainRegistry over the hardcoded
// definitions above.
type ChainRegistryProvider struct {
	logger         port.Logger
	byChainID      map[uint64]entity.NetworkDefinition
	ordered        []entity.NetworkDefinition
	defaultChainID uint64
}

// NewChainRegistryProvider builds the registry and validates that every
// network carries a router, a wrapped-native address and a native sentinel
// entry in its token table.
func NewChainRegistryProvider(log port.Logger, defaultChainID uint64) (*ChainRegistryProvider, error) {
	ordered := []entity.NetworkDefinition{Ethereum, Base, Sepolia}

	byChainID := make(map[uint64]entity.NetworkDefinition, len(ordered))
	for _, def := range ordered {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("network %q (chain %d): %w", def.Identifier, def.ChainID, err)
		}
		if _, dup := byChainID[def.ChainID]; dup {
			return nil, fmt.Errorf("duplicate chain id %d in network definitions", def.ChainID)
		}
		byChainID[def.ChainID] = def
	}

	if _, ok := byChainID[defaultChainID]; !ok {
		return nil, fmt.Errorf("default chain id %d has no network definition", defaultChainID)
	}

	log.Info("Chain registry initialized",
		"networks", len(ordered),
		"defaultChainId", defaultChainID)

	return &ChainRegistryProvider{
		logger:         log,
		byChainID:      byChainID,
		ordered:        ordered,
		defaultChainID: defaultChainID,
	}, nil
}

func validateDefinition(def entity.NetworkDefinition) error {
	if def.RouterAddress == "" {
		return fmt.Errorf("missing router address")
	}
	if def.WrappedNativeAddress == "" {
		return fmt.Errorf("missing wrapped native address")
	}
	if def.PrimaryRPCURL == "" {
		return fmt.Errorf("missing primary RPC URL")
	}
	nativeAddr, ok := def.Tokens[def.NativeSymbol]
	if !ok || nativeAddr != entity.ZeroAddress {
		return fmt.Errorf("native symbol %s must map to the zero address sentinel", def.NativeSymbol)
	}
	for symbol := range def.Tokens {
		if _, known := tokenMetadata[symbol]; !known {
			return fmt.Errorf("token %s has no metadata entry", symbol)
		}
	}
	return nil
}

// ByChainID returns the definition for the chain id, falling back to the
// default network with exact=false when the id is unknown.
func (r *ChainRegistryProvider) ByChainID(chainID uint64) (entity.NetworkDefinition, bool) {
	if def, ok := r.byChainID[chainID]; ok {
		return def, true
	}
	r.logger.Warn("Unknown chain id requested, falling back to default network",
		"requestedChainId", chainID,
		"defaultChainId", r.defaultChainID)
	return r.byChainID[r.defaultChainID], false
}

// All returns the supported networks in declaration order.
func (r *ChainRegistryProvider) All() []entity.NetworkDefinition {
	out := make([]entity.NetworkDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// DefaultChainID returns the configured fallback chain id.
func (r *ChainRegistryProvider) DefaultChainID() uint64 {
	return r.defaultChainID
}

// TokenMetadata returns display metadata for a symbol.
func (r *ChainRegistryProvider) TokenMetadata(symbol string) (entity.TokenMetadata, bool) {
	md, ok := tokenMetadata[symbol]
	return md, ok
}

// SymbolByAddress resolves a contract address back to its symbol on the given
// network. The zero address resolves to the network's native symbol.
func (r *ChainRegistryProvider) SymbolByAddress(def entity.NetworkDefinition, address string) (string, bool) {
	if address == entity.ZeroAddress {
		return def.NativeSymbol, true
	}
	for symbol, addr := range def.Tokens {
		if equalAddress(addr, address) {
			return symbol, true
		}
	}
	return "", false
}

func equalAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
