package spawn

import (
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"

	"github.com/nestybox/mountbrokerd/domain"
)

func TestMountWithoutDBusNameOrExecFails(t *testing.T) {
	s := &Service{spawnTimeout: time.Second}

	d := &domain.MountableDescriptor{Type: "smb"}
	err := s.Mount(nil, d, nil, domain.DummySourceRef, false)

	berr, ok := err.(*domain.BrokerError)
	assert.True(t, ok)
	assert.Equal(t, domain.Failed, berr.Kind)
}

func TestSpawnerDeliversResultOnce(t *testing.T) {
	sp := newSpawner()

	derr := sp.Spawned(true, "", dbus.Sender("org.gtk.helper.smb"))
	assert.Nil(t, derr)

	select {
	case res := <-sp.result:
		assert.True(t, res.succeeded)
		assert.Equal(t, "org.gtk.helper.smb", res.sender)
	default:
		t.Fatal("expected a buffered result")
	}

	// A second call after the first is drained must not block or panic.
	derr = sp.Spawned(false, "crashed", dbus.Sender("org.gtk.helper.smb"))
	assert.Nil(t, derr)
}

func TestSpawnCommandLineParsesExecAsWholeShellLine(t *testing.T) {
	name, args := spawnCommandLine("/usr/bin/env FOO=bar /usr/lib/gvfs/gvfsd-smb", "org.gtk.vfs.Mountbrokerd", dbus.ObjectPath("/org/gtk/vfs/spawner1"))

	assert.Equal(t, "/bin/sh", name)
	assert.Equal(t, []string{
		"-c",
		"/usr/bin/env FOO=bar /usr/lib/gvfs/gvfsd-smb --spawner org.gtk.vfs.Mountbrokerd /org/gtk/vfs/spawner1",
	}, args)
}

func TestSpawnerIgnoresSecondCallWhenUndrained(t *testing.T) {
	sp := newSpawner()

	sp.Spawned(true, "", dbus.Sender("first"))
	sp.Spawned(false, "second call should be dropped", dbus.Sender("second"))

	res := <-sp.result
	assert.True(t, res.succeeded)
	assert.Equal(t, "first", res.sender)
}
