// Package wallet provides a signing wallet backed by a local private key.
// It stands in for the externally owned wallet of the dashboard: the same
// port surface would be implemented by a remote connector in production.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// LocalWallet implements port.Wallet and port.WalletConnector with a local
// ECDSA key. Connection lifecycle is simulated: the wallet connects on
// Start and emits the matching connector signals.
type LocalWallet struct {
	netDef     entity.NetworkDefinition
	ethClient  *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     port.Logger

	mu      sync.Mutex
	status  entity.ConnectionStatus
	signals chan entity.ConnectorSignal
}

// NewLocalWallet parses the hex private key and connects to the network's
// primary RPC endpoint.
func NewLocalWallet(netDef entity.NetworkDefinition, privateKeyHex string, log port.Logger) (*LocalWallet, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	publicKey, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("failed to derive public key")
	}

	ethClient, err := ethclient.Dial(netDef.PrimaryRPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	return &LocalWallet{
		netDef:     netDef,
		ethClient:  ethClient,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(*publicKey),
		logger:     log,
		status:     entity.StatusDisconnected,
		signals:    make(chan entity.ConnectorSignal, 8),
	}, nil
}

// Start transitions the wallet through connecting to connected, emitting the
// connector signals the session layer mirrors.
func (w *LocalWallet) Start() {
	w.emit(entity.StatusConnecting, "")
	w.emit(entity.StatusConnected, "")
	w.logger.Info("Local wallet connected", "address", w.address.Hex(), "network", w.netDef.Name)
}

func (w *LocalWallet) emit(status entity.ConnectionStatus, errMsg string) {
	w.mu.Lock()
	w.status = status
	w.mu.Unlock()

	signal := entity.ConnectorSignal{
		Status:  status,
		ChainID: w.netDef.ChainID,
		Err:     errMsg,
	}
	if status == entity.StatusConnected {
		signal.Address = w.address.Hex()
	}
	select {
	case w.signals <- signal:
	default:
		w.logger.Warn("Connector signal dropped, channel full", "status", status)
	}
}

// Address returns the wallet's account address.
func (w *LocalWallet) Address() string {
	return w.address.Hex()
}

// ChainID returns the wallet's active chain.
func (w *LocalWallet) ChainID() uint64 {
	return w.netDef.ChainID
}

// Status returns the current connection status.
func (w *LocalWallet) Status() entity.ConnectionStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// SubmitTransaction signs the request with the local key and broadcasts it.
func (w *LocalWallet) SubmitTransaction(ctx context.Context, req entity.TxRequest) (string, error) {
	w.mu.Lock()
	status := w.status
	w.mu.Unlock()
	if status != entity.StatusConnected {
		return "", entity.ErrWalletNotConnected
	}

	if !common.IsHexAddress(req.To) {
		return "", fmt.Errorf("invalid transaction recipient: %s", req.To)
	}

	nonce, err := w.ethClient.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := w.ethClient.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	value := req.Value
	if value == nil {
		value = big.NewInt(0)
	}

	tx := types.NewTransaction(
		nonce,
		common.HexToAddress(req.To),
		value,
		req.GasLimit,
		gasPrice,
		req.Data,
	)

	chainID := new(big.Int).SetUint64(w.netDef.ChainID)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.ethClient.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	hash := signedTx.Hash().Hex()
	w.logger.Info("Transaction broadcast", "hash", hash, "to", req.To, "nonce", nonce)
	return hash, nil
}

// Signals returns the connector signal stream.
func (w *LocalWallet) Signals() <-chan entity.ConnectorSignal {
	return w.signals
}

// Disconnect tears the simulated session down. Confirmation arrives as a
// disconnected signal, the same way an external connector would deliver it.
func (w *LocalWallet) Disconnect(_ context.Context) error {
	w.emit(entity.StatusDisconnected, "")
	w.logger.Info("Local wallet disconnected")
	return nil
}

// Close releases the RPC connection and ends the signal stream.
func (w *LocalWallet) Close() {
	if w.ethClient != nil {
		w.ethClient.Close()
	}
	close(w.signals)
}
