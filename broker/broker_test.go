package broker

import (
	"context"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestybox/mountbrokerd/catalog"
	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/registry"
	"github.com/nestybox/mountbrokerd/sysio"
)

type fakeWatcher struct{ canceled bool }

func (f *fakeWatcher) Cancel() { f.canceled = true }

// fakeSpawner is the Spawn Coordinator test double: every call is recorded
// and the result is whatever the test pre-programmed.
type fakeSpawner struct {
	err   error
	calls int
}

func (s *fakeSpawner) Mount(ctx context.Context, d *domain.MountableDescriptor, spec domain.MountSpecIface, source domain.SourceRef, automount bool) error {
	s.calls++
	return s.err
}

func newTestBroker(t *testing.T) (*Broker, *registry.Registry, *fakeSpawner) {
	t.Helper()

	restore := watchPeer
	watchPeer = func(conn *dbus.Conn, peerID string, onVanished func()) (domain.WatcherHandle, error) {
		return &fakeWatcher{}, nil
	}
	t.Cleanup(func() { watchPeer = restore })

	reg := registry.New()
	spawner := &fakeSpawner{}

	b := New(nil, time.Second)
	b.Setup(catalog.New(sysio.NewIOService(domain.IOMemFileService)), reg, spawner)

	return b, reg, spawner
}

func smbSpec(host string) domain.MountSpecVariant {
	return domain.MountSpecVariant{Type: "smb", Fields: map[string]string{"host": host}}
}

// S1 — register/list/unregister (unregister modeled as peer vanishing).
func TestRegisterListThenPeerVanishes(t *testing.T) {
	b, reg, _ := newTestBroker(t)

	err := b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", true, smbSpec("srv"), "/srv/share")
	require.NoError(t, err)

	mounts := b.ListMounts()
	assert.Len(t, mounts, 1)
	assert.Equal(t, "P1", mounts[0].PeerID())

	b.onPeerVanished("P1")
	assert.Empty(t, b.ListMounts())
	assert.Empty(t, reg.Enumerate())
}

// S2 — duplicate registration by spec-match collision.
func TestRegisterMountDuplicateSpecRejected(t *testing.T) {
	b, _, _ := newTestBroker(t)

	require.NoError(t, b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", true, smbSpec("srv"), ""))

	err := b.RegisterMount("P2", "/m/x", "Disk", "disk-2", "", "", "UTF-8", true, smbSpec("srv"), "")
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.AlreadyMounted, berr.Kind)

	assert.Len(t, b.ListMounts(), 1)
}

func TestRegisterMountDuplicatePeerAndPath(t *testing.T) {
	b, _, _ := newTestBroker(t)

	require.NoError(t, b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", true, smbSpec("a"), ""))

	err := b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", true, smbSpec("b"), "")
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.AlreadyMounted, berr.Kind)
}

// S4 — automount denied: a type exists but automount=false.
func TestLookupMountAutomountDenied(t *testing.T) {
	b, _, spawner := newTestBroker(t)

	writeMountable(t, b, domain.MountableDescriptor{Type: "x", Exec: "/bin/true", AutoMount: false})

	_, err := b.LookupMount(domain.MountSpecVariant{Type: "x"})
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.NotMounted, berr.Kind)
	assert.Equal(t, 0, spawner.calls)
}

func TestLookupMountNoMountableIsNotSupported(t *testing.T) {
	b, _, _ := newTestBroker(t)

	_, err := b.LookupMount(domain.MountSpecVariant{Type: "unknown"})
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.NotSupported, berr.Kind)
}

// Property 7 — a failed automount does not retry: the spawner is called
// exactly once even though maybeAutomount's success path would otherwise
// re-enter lookup.
func TestFailedAutomountDoesNotRecurse(t *testing.T) {
	b, _, spawner := newTestBroker(t)
	spawner.err = domain.NewBrokerError(domain.Failed, "helper crashed")

	writeMountable(t, b, domain.MountableDescriptor{Type: "x", Exec: "/bin/true", AutoMount: true})

	_, err := b.LookupMount(domain.MountSpecVariant{Type: "x"})
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.NotMounted, berr.Kind)
	assert.Equal(t, 1, spawner.calls)
}

func TestMountLocationAlreadyMounted(t *testing.T) {
	b, _, _ := newTestBroker(t)
	require.NoError(t, b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", true, smbSpec("srv"), ""))

	err := b.MountLocation(smbSpec("srv"), domain.DummySourceRef)
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.AlreadyMounted, berr.Kind)
}

func TestMountLocationNoMountableIsNotMounted(t *testing.T) {
	b, _, _ := newTestBroker(t)

	err := b.MountLocation(domain.MountSpecVariant{Type: "unknown"}, domain.DummySourceRef)
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.NotMounted, berr.Kind)
}

func TestMountLocationHappyPathCallsSpawner(t *testing.T) {
	b, _, spawner := newTestBroker(t)
	writeMountable(t, b, domain.MountableDescriptor{Type: "smb", Exec: "/usr/lib/gvfs-smb"})

	err := b.MountLocation(smbSpec("srv"), domain.DummySourceRef)
	require.NoError(t, err)
	assert.Equal(t, 1, spawner.calls)
}

func TestLookupMountByFusePathNotMounted(t *testing.T) {
	b, _, _ := newTestBroker(t)

	_, err := b.LookupMountByFusePath("/run/user/1000/gvfs/anything")
	berr, ok := err.(*domain.BrokerError)
	require.True(t, ok)
	assert.Equal(t, domain.NotMounted, berr.Kind)
}

func TestRegisterMountNotUserVisibleHasNoFuseMountpoint(t *testing.T) {
	b, reg, _ := newTestBroker(t)

	require.NoError(t, b.RegisterMount("P1", "/m/1", "Disk", "disk-1", "", "", "UTF-8", false, smbSpec("srv"), ""))

	m, ok := reg.Find("P1", "/m/1")
	require.True(t, ok)
	assert.Equal(t, "", m.FuseMountpoint())
}

// writeMountable seeds the broker's catalog by replacing it with a
// fakeCatalog holding just d, since Catalog has no direct insert.
func writeMountable(t *testing.T, b *Broker, d domain.MountableDescriptor) {
	t.Helper()

	fs := &fakeCatalog{descriptor: d}
	b.catalog = fs
}

// fakeCatalog is a minimal domain.CatalogIface double so broker tests don't
// need to round-trip through INI files to seed a single descriptor.
type fakeCatalog struct {
	descriptor domain.MountableDescriptor
}

func (f *fakeCatalog) Load(dir string) error   { return nil }
func (f *fakeCatalog) Reload() error           { return nil }
func (f *fakeCatalog) FindByType(t string) (*domain.MountableDescriptor, bool) {
	if t != f.descriptor.Type {
		return nil, false
	}
	d := f.descriptor
	return &d, true
}
func (f *fakeCatalog) LookupForSpec(spec domain.MountSpecIface) (*domain.MountableDescriptor, bool) {
	return f.FindByType(spec.Type())
}
func (f *fakeCatalog) Enumerate() []domain.MountableDescriptor {
	return []domain.MountableDescriptor{f.descriptor}
}
