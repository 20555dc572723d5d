package entity

// ZeroAddress is the reserved sentinel for the chain's native asset in token tables.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// NetworkDefinition holds the static configuration for a supported network.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID              uint64            `json:"chainId" yaml:"chainId"`
	Name                 string            `json:"name" yaml:"name"`
	Identifier           string            `json:"identifier" yaml:"identifier"` // e.g. "ethereum", "base"
	NativeSymbol         string            `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals       uint8             `json:"nativeDecimals" yaml:"nativeDecimals"`
	RouterAddress        string            `json:"routerAddress" yaml:"routerAddress"`
	WrappedNativeAddress string            `json:"wrappedNativeAddress" yaml:"wrappedNativeAddress"`
	PrimaryRPCURL        string            `json:"primaryRpcUrl" yaml:"primaryRpcUrl"`
	FallbackRPCURLs      []string          `json:"fallbackRpcUrls" yaml:"fallbackRpcUrls"`
	BlockExplorerURL     string            `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	Tokens               map[string]string `json:"tokens" yaml:"tokens"` // symbol -> contract address; native asset uses ZeroAddress
}

// ExplorerTxURL builds the block explorer link for a transaction hash on this network.
func (n NetworkDefinition) ExplorerTxURL(hash string) string {
	if n.BlockExplorerURL == "" || hash == "" {
		return ""
	}
	return n.BlockExplorerURL + "/tx/" + hash
}

// ExplorerAddressURL builds the block explorer link for an account address on this network.
func (n NetworkDefinition) ExplorerAddressURL(address string) string {
	if n.BlockExplorerURL == "" || address == "" {
		return ""
	}
	return n.BlockExplorerURL + "/address/" + address
}
