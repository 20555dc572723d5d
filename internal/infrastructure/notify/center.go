// Package notify maps service state transitions to dismissible, time-limited
// user-facing messages, mirroring the dashboard's toast catalogue.
package notify

import (
	"fmt"
	"sync"
	"time"

	"swap_gateway/internal/app/port"
	"swap_gateway/internal/domain/entity"
)

const (
	defaultNoticeTTL = 8 * time.Second
	loadingNoticeTTL = 30 * time.Second
	maxNotices       = 50
)

// Center is a bounded in-memory notice feed implementing port.Notifier.
type Center struct {
	registry port.ChainRegistry
	logger   port.Logger

	mu      sync.Mutex
	notices []entity.Notice
	nextID  uint64
}

// NewCenter creates a new notification center.
func NewCenter(registry port.ChainRegistry, log port.Logger) *Center {
	return &Center{
		registry: registry,
		logger:   log,
	}
}

func (c *Center) push(kind entity.NoticeKind, ttl time.Duration, title, description, txHash string, chainID uint64) {
	now := time.Now()
	notice := entity.Notice{
		Title:       title,
		Description: description,
		Kind:        kind,
		TxHash:      txHash,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if txHash != "" && c.registry != nil {
		def, _ := c.registry.ByChainID(chainID)
		notice.ExplorerURL = def.ExplorerTxURL(txHash)
	}

	c.mu.Lock()
	c.nextID++
	notice.ID = c.nextID
	c.notices = append(c.notices, notice)
	if len(c.notices) > maxNotices {
		c.notices = c.notices[len(c.notices)-maxNotices:]
	}
	c.mu.Unlock()

	c.logger.Debug("Notice published", "kind", kind, "title", title, "txHash", txHash)
}

// Estimating announces that a quote is being computed.
func (c *Center) Estimating() {
	c.push(entity.NoticeLoading, loadingNoticeTTL, "Estimating swap...", "", "", 0)
}

// EstimationFailed announces a failed quote with the underlying reason.
func (c *Center) EstimationFailed(reason string) {
	c.push(entity.NoticeError, defaultNoticeTTL, "Estimation failed", reason, "", 0)
}

// Swapping announces that a swap transaction is being submitted.
func (c *Center) Swapping() {
	c.push(entity.NoticeLoading, loadingNoticeTTL, "Swapping...", "Submitting transaction", "", 0)
}

// Approving announces a submitted approval with its explorer link.
func (c *Center) Approving(hash string, chainID uint64) {
	c.push(entity.NoticeLoading, loadingNoticeTTL, "Approving token...", "Waiting for approval to confirm", hash, chainID)
}

// Confirming announces a submitted swap awaiting its receipt.
func (c *Center) Confirming(hash string, chainID uint64) {
	c.push(entity.NoticeLoading, loadingNoticeTTL, "Confirming transaction...", "Waiting for confirmation", hash, chainID)
}

// Success announces a confirmed swap with its explorer link.
func (c *Center) Success(hash string, chainID uint64) {
	c.push(entity.NoticeSuccess, defaultNoticeTTL, "Swap successful!", "Transaction confirmed", hash, chainID)
}

// Failed announces a failed transaction with the reason verbatim.
func (c *Center) Failed(reason string) {
	c.push(entity.NoticeError, defaultNoticeTTL, "Swap failed", reason, "", 0)
}

// TimedOut announces that confirmation was abandoned client-side. The
// transaction may still mine afterwards, so the explorer link stays attached.
func (c *Center) TimedOut(hash string, chainID uint64) {
	c.push(entity.NoticeError, defaultNoticeTTL, "Confirmation timed out", "The transaction was not confirmed in time; check the explorer", hash, chainID)
}

// NetworkMismatch prompts the user to switch networks after an unknown chain
// id was substituted with the default.
func (c *Center) NetworkMismatch(requested, fallback uint64) {
	c.push(entity.NoticeInfo, defaultNoticeTTL,
		"Unsupported network",
		fmt.Sprintf("Chain %d is not supported; using chain %d instead. Switch your wallet network.", requested, fallback),
		"", 0)
}

// Active returns the non-expired notices, newest first.
func (c *Center) Active() []entity.Notice {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.notices[:0]
	for _, notice := range c.notices {
		if notice.ExpiresAt.After(now) {
			kept = append(kept, notice)
		}
	}
	c.notices = kept

	out := make([]entity.Notice, len(kept))
	for i, notice := range kept {
		out[len(kept)-1-i] = notice
	}
	return out
}

// Dismiss drops a notice by id.
func (c *Center) Dismiss(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, notice := range c.notices {
		if notice.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}
