package busexport

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/wire"
)

type fakeBroker struct {
	registerErr error
	lastSender  string
	lastObjPath string

	mount    domain.MountIface
	mountErr error

	mountLocationErr error
}

func (f *fakeBroker) Setup(domain.CatalogIface, domain.RegistryIface, domain.SpawnServiceIface) {}

func (f *fakeBroker) RegisterMount(sender, objPath, displayName, stableName, xContentTypes, icon, preferredEncoding string, userVisible bool, specWire domain.MountSpecVariant, defaultLocation string) error {
	f.lastSender = sender
	f.lastObjPath = objPath
	return f.registerErr
}

func (f *fakeBroker) RegisterFuse() {}

func (f *fakeBroker) LookupMount(domain.MountSpecVariant) (domain.MountIface, error) {
	return f.mount, f.mountErr
}

func (f *fakeBroker) LookupMountByFusePath(string) (domain.MountIface, error) {
	return f.mount, f.mountErr
}

func (f *fakeBroker) ListMounts() []domain.MountIface                     { return nil }
func (f *fakeBroker) ListMountTypes() []string                            { return []string{"smb"} }
func (f *fakeBroker) ListMountableInfo() []domain.MountableDescriptor     { return nil }
func (f *fakeBroker) MountLocation(domain.MountSpecVariant, domain.SourceRef) error {
	return f.mountLocationErr
}

func TestRegisterMountCapturesSenderFromDBus(t *testing.T) {
	fb := &fakeBroker{}
	tr := NewTracker(fb)

	derr := tr.RegisterMount(dbus.ObjectPath("/m/1"), "Disk", "disk-1", "", "", "UTF-8", true,
		wire.MountSpecStruct{Type: "smb", Fields: map[string]string{"host": "srv"}}, nil, dbus.Sender("org.gtk.helper.smb"))

	assert.Nil(t, derr)
	assert.Equal(t, "org.gtk.helper.smb", fb.lastSender)
	assert.Equal(t, "/m/1", fb.lastObjPath)
}

func TestRegisterMountTranslatesBrokerErrorToDBusError(t *testing.T) {
	fb := &fakeBroker{registerErr: domain.NewBrokerError(domain.AlreadyMounted, "dup")}
	tr := NewTracker(fb)

	derr := tr.RegisterMount(dbus.ObjectPath("/m/1"), "", "", "", "", "", true,
		wire.MountSpecStruct{Type: "smb"}, nil, dbus.Sender("s"))

	require.NotNil(t, derr)
	assert.Equal(t, "org.gtk.vfs.Error.AlreadyMounted", derr.Name)
}

func TestListMountTypesPassesThrough(t *testing.T) {
	tr := NewTracker(&fakeBroker{})
	types, derr := tr.ListMountTypes()
	assert.Nil(t, derr)
	assert.Equal(t, []string{"smb"}, types)
}
