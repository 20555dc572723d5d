package entity

import "time"

// NoticeKind mirrors the toast variants of the dashboard UI.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeLoading NoticeKind = "loading"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a dismissible, time-limited user-facing status message produced
// from calculator/executor/watcher state transitions.
type Notice struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Kind        NoticeKind `json:"kind"`
	TxHash      string     `json:"txHash,omitempty"`
	ExplorerURL string     `json:"explorerUrl,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
}
