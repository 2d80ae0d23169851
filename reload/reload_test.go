package reload

import (
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestybox/mountbrokerd/domain"
)

type countingCatalog struct {
	reloads int32
}

func (c *countingCatalog) Load(dir string) error { return nil }
func (c *countingCatalog) Reload() error {
	atomic.AddInt32(&c.reloads, 1)
	return nil
}
func (c *countingCatalog) FindByType(t string) (*domain.MountableDescriptor, bool) { return nil, false }
func (c *countingCatalog) LookupForSpec(spec domain.MountSpecIface) (*domain.MountableDescriptor, bool) {
	return nil, false
}
func (c *countingCatalog) Enumerate() []domain.MountableDescriptor { return nil }

func TestSigusr1TriggersCatalogReload(t *testing.T) {
	cat := &countingCatalog{}
	w, err := New(cat)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&cat.reloads) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestMultipleSignalsTriggerMultipleReloads(t *testing.T) {
	cat := &countingCatalog{}
	w, err := New(cat)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&cat.reloads) == 3
	}, time.Second, 5*time.Millisecond)
}

func TestStopStopsFurtherReloads(t *testing.T) {
	cat := &countingCatalog{}
	w, err := New(cat)
	require.NoError(t, err)
	w.Start()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&cat.reloads) == 1
	}, time.Second, 5*time.Millisecond)

	w.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&cat.reloads))
}
