package notify

import (
	"testing"

	"swap_gateway/internal/domain/entity"
	"swap_gateway/internal/infrastructure/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func newCenter(t *testing.T) *Center {
	t.Helper()
	reg, err := registry.NewChainRegistryProvider(nopLogger{}, 8453)
	require.NoError(t, err)
	return NewCenter(reg, nopLogger{})
}

func TestCenter_ActiveNewestFirst(t *testing.T) {
	c := newCenter(t)

	c.Estimating()
	c.Swapping()
	c.Success("0xabc", 8453)

	active := c.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "Swap successful!", active[0].Title)
	assert.Equal(t, "Swapping...", active[1].Title)
	assert.Equal(t, "Estimating swap...", active[2].Title)

	// IDs increase with publication order.
	assert.Greater(t, active[0].ID, active[1].ID)
}

func TestCenter_AttachesExplorerLink(t *testing.T) {
	c := newCenter(t)

	c.Confirming("0xabc", 8453)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "0xabc", active[0].TxHash)
	assert.Equal(t, "https://basescan.org/tx/0xabc", active[0].ExplorerURL)
	assert.Equal(t, entity.NoticeLoading, active[0].Kind)
}

func TestCenter_Dismiss(t *testing.T) {
	c := newCenter(t)

	c.Failed("reverted")
	c.TimedOut("0xabc", 8453)

	active := c.Active()
	require.Len(t, active, 2)

	c.Dismiss(active[1].ID)
	active = c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Confirmation timed out", active[0].Title)
}

func TestCenter_BoundedFeed(t *testing.T) {
	c := newCenter(t)

	for i := 0; i < maxNotices+10; i++ {
		c.Estimating()
	}
	assert.Len(t, c.Active(), maxNotices)
}

func TestCenter_NetworkMismatchPrompt(t *testing.T) {
	c := newCenter(t)

	c.NetworkMismatch(999, 8453)
	active := c.Active()
	require.Len(t, active, 1)
	assert.Equal(t, entity.NoticeInfo, active[0].Kind)
	assert.Contains(t, active[0].Description, "999")
	assert.Contains(t, active[0].Description, "8453")
}
