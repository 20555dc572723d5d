package port

import "swap_gateway/internal/domain/entity"

// Notifier maps calculator/executor/watcher state transitions to user-visible
// status messages. The method set mirrors the dashboard's toast catalogue.
type Notifier interface {
	Estimating()
	EstimationFailed(reason string)
	Swapping()
	Approving(hash string, chainID uint64)
	Confirming(hash string, chainID uint64)
	Success(hash string, chainID uint64)
	Failed(reason string)
	TimedOut(hash string, chainID uint64)
	NetworkMismatch(requested, fallback uint64)

	// Active returns the non-expired, non-dismissed notices, newest first.
	Active() []entity.Notice
	Dismiss(id uint64)
}
