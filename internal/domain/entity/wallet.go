package entity

// ConnectionStatus is the wallet connector's reported state. Transitions are
// driven by connector signals only; the session layer has no authority to
// force a transition except the optimistic local disconnect.
type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
	StatusError        ConnectionStatus = "error"
)

// ConnectorSignal is one state change emitted by the external wallet connector.
type ConnectorSignal struct {
	Status  ConnectionStatus
	Address string
	ChainID uint64
	Err     string
}

// WalletSession mirrors the externally owned connector state. Status is the
// last connector-confirmed state; PendingStatus is set while a locally
// initiated transition (disconnect) awaits connector confirmation, so callers
// that care about divergence can tell the two apart.
type WalletSession struct {
	Address       string            `json:"address,omitempty"`
	ChainID       uint64            `json:"chainId"`
	Status        ConnectionStatus  `json:"status"`
	PendingStatus *ConnectionStatus `json:"pendingStatus,omitempty"`
	NativeBalance string            `json:"nativeBalance,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
}

// Effective is the status the UI should display: the optimistic pending
// transition when one exists, the confirmed status otherwise.
func (s WalletSession) Effective() ConnectionStatus {
	if s.PendingStatus != nil {
		return *s.PendingStatus
	}
	return s.Status
}
