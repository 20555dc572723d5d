package client

import (
	"fmt"
	"sync"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/config"
	"swap_gateway/internal/domain/entity"

	"golang.org/x/time/rate"
)

const defaultProviderConnectionTimeout = 10 * time.Second

// evmClientProvider implements the port.ChainClientProvider interface.
type evmClientProvider struct {
	clients           map[uint64]port.ChainClient
	mu                sync.Mutex
	logger            port.Logger
	connectionTimeout time.Duration
	rpcCfg            config.RpcClientConfig
}

// NewEVMClientProvider creates a new EVMClientProvider.
func NewEVMClientProvider(cfg *config.Config, log port.Logger) port.ChainClientProvider {
	return &evmClientProvider{
		clients:           make(map[uint64]port.ChainClient),
		logger:            log,
		connectionTimeout: defaultProviderConnectionTimeout,
		rpcCfg:            cfg.RpcClient,
	}
}

// GetClient retrieves a chain client for the given network definition.
// Clients are cached per chain id to avoid reconnecting repeatedly.
func (p *evmClientProvider) GetClient(netDef entity.NetworkDefinition) (port.ChainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cached, exists := p.clients[netDef.ChainID]; exists {
		p.logger.Debug("Returning cached EVM client", "network", netDef.Name)
		return cached, nil
	}

	p.logger.Info("Creating new EVM client", "network", netDef.Name, "rpc_primary", netDef.PrimaryRPCURL)
	limiter := rate.NewLimiter(rate.Limit(p.rpcCfg.RateLimit), p.rpcCfg.BurstLimit)
	newClient, err := NewEVMClient(netDef, p.rpcCfg, p.connectionTimeout, limiter)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "network", netDef.Name, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", netDef.Name, err)
	}

	p.clients[netDef.ChainID] = newClient
	p.logger.Info("Successfully created and cached new EVM client", "network", netDef.Name)
	return newClient, nil
}
