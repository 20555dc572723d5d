package entity

// ReceiptInfo is the minimal receipt state the confirmation watcher needs.
type ReceiptInfo struct {
	Success     bool
	BlockNumber uint64
	// RevertReason holds the decoded revert string when the node returned one;
	// empty otherwise.
	RevertReason string
}
