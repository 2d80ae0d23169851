//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package broker implements the Tracker Service Facade (spec.md §4.3): the
// broker context that owns the D-Bus connection, the Mount Registry, the
// Mountable Catalog, and the Spawn Coordinator, and exports the operations
// a client or a helper calls into. It is the single struct state/
// containerStateService models for sysbox-fs's own process-wide maps, and
// the dispatch style mirrors ipc/apis.go's Setup-then-callback wiring.
package broker

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/mountspec"
	"github.com/nestybox/mountbrokerd/prompt"
	"github.com/nestybox/mountbrokerd/registry"
	"github.com/nestybox/mountbrokerd/wire"
)

var _ domain.BrokerServiceIface = (*Broker)(nil)

// Broker is the process-wide facade. All bus method handlers below are
// methods on *Broker so they share its Registry, Catalog and Spawner
// without any package-global state.
type Broker struct {
	conn *dbus.Conn

	catalog  domain.CatalogIface
	registry domain.RegistryIface
	spawner  domain.SpawnServiceIface

	mountTimeout time.Duration
}

// New builds a Broker bound to conn. Setup must be called before any
// exported method is reachable over the bus.
func New(conn *dbus.Conn, mountTimeout time.Duration) *Broker {
	if mountTimeout <= 0 {
		mountTimeout = 300 * time.Second
	}
	return &Broker{conn: conn, mountTimeout: mountTimeout}
}

func (b *Broker) Setup(catalog domain.CatalogIface, reg domain.RegistryIface, spawner domain.SpawnServiceIface) {
	b.catalog = catalog
	b.registry = reg
	b.spawner = spawner
}

// RegisterMount implements spec.md §4.3's register_mount.
func (b *Broker) RegisterMount(
	sender string,
	objPath string,
	displayName string,
	stableName string,
	xContentTypes string,
	icon string,
	preferredEncoding string,
	userVisible bool,
	specWire domain.MountSpecVariant,
	defaultLocation string,
) error {
	spec, err := mountspec.Parse(specWire)
	if err != nil {
		return err
	}

	if _, ok := b.registry.Find(sender, objPath); ok {
		return domain.NewBrokerError(domain.AlreadyMounted, "(%s, %s) is already registered", sender, objPath)
	}
	if _, ok := b.registry.MatchSpec(spec); ok {
		return domain.NewBrokerError(domain.AlreadyMounted, "a mount already satisfies this spec")
	}

	fuseMountpoint := ""
	if userVisible {
		fuseMountpoint = computeFuseMountpoint(stableName)
	}

	m := registry.NewMount(sender, objPath, displayName, stableName, xContentTypes, icon, preferredEncoding, userVisible, fuseMountpoint, spec, defaultLocation)

	watch, err := watchPeer(b.conn, sender, func() {
		b.onPeerVanished(sender)
	})
	if err == nil {
		m.SetWatcherHandle(watch)
	} else {
		logrus.Warnf("broker: could not watch peer %s for liveness: %v", sender, err)
	}

	b.registry.Insert(m)
	b.emitMounted(m)

	return nil
}

func (b *Broker) RegisterFuse() {
	b.registry.SetFuseAvailable(true)
}

// LookupMount implements spec.md §4.3's lookup_mount, falling through to
// the automount policy (§4.4) when nothing already satisfies the spec.
func (b *Broker) LookupMount(specWire domain.MountSpecVariant) (domain.MountIface, error) {
	return b.lookupMount(specWire, true)
}

func (b *Broker) lookupMount(specWire domain.MountSpecVariant, doAutomount bool) (domain.MountIface, error) {
	spec, err := mountspec.Parse(specWire)
	if err != nil {
		return nil, err
	}

	if m, ok := b.registry.MatchSpec(spec); ok {
		return m, nil
	}

	return b.maybeAutomount(spec, doAutomount)
}

// maybeAutomount implements spec.md §4.4. It is only ever called with
// doAutomount=true once per original lookup_mount call: the success path
// re-enters lookupMount with doAutomount=false, so a failed automount can
// never recurse into another automount attempt (property 7).
func (b *Broker) maybeAutomount(spec domain.MountSpecIface, doAutomount bool) (domain.MountIface, error) {
	descriptor, ok := b.catalog.LookupForSpec(spec)
	if !ok {
		return nil, domain.NewBrokerError(domain.NotSupported, "no mountable registered for type %q", spec.Type())
	}

	if !doAutomount || !descriptor.AutoMount {
		return nil, domain.NewBrokerError(domain.NotMounted, "no mount satisfies this spec")
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.mountTimeout)
	defer cancel()

	if err := b.spawner.Mount(ctx, descriptor, spec, domain.DummySourceRef, true); err != nil {
		if berr, ok := err.(*domain.BrokerError); ok {
			return nil, domain.NewBrokerError(domain.NotMounted, "%s", berr.Message)
		}
		return nil, domain.NewBrokerError(domain.NotMounted, "%s", err)
	}

	return b.lookupMount(domain.MountSpecVariant{Type: spec.Type(), Fields: spec.Fields()}, false)
}

func (b *Broker) LookupMountByFusePath(path string) (domain.MountIface, error) {
	m, ok := b.registry.FindByFusePath(path)
	if !ok {
		return nil, domain.NewBrokerError(domain.NotMounted, "no mount covers %q", path)
	}
	return m, nil
}

func (b *Broker) ListMounts() []domain.MountIface {
	return b.registry.Enumerate()
}

func (b *Broker) ListMountTypes() []string {
	entries := b.catalog.Enumerate()
	out := make([]string, len(entries))
	for i := range entries {
		out[i] = entries[i].Type
	}
	return out
}

func (b *Broker) ListMountableInfo() []domain.MountableDescriptor {
	return b.catalog.Enumerate()
}

// MountLocation implements spec.md §4.3's mount_location.
func (b *Broker) MountLocation(specWire domain.MountSpecVariant, source domain.SourceRef) error {
	spec, err := mountspec.Parse(specWire)
	if err != nil {
		return err
	}

	if _, ok := b.registry.MatchSpec(spec); ok {
		return domain.NewBrokerError(domain.AlreadyMounted, "a mount already satisfies this spec")
	}

	descriptor, ok := b.catalog.LookupForSpec(spec)
	if !ok {
		return domain.NewBrokerError(domain.NotMounted, "no mountable registered for type %q", spec.Type())
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.mountTimeout)
	defer cancel()

	return b.spawner.Mount(ctx, descriptor, spec, source, false)
}

// onPeerVanished is the Peer-Liveness Watcher's callback (spec.md §4.8):
// remove every mount owned by peerID and broadcast "unmounted" for each.
func (b *Broker) onPeerVanished(peerID string) {
	removed := b.registry.RemoveByPeer(peerID)
	for _, m := range removed {
		b.emitUnmounted(m)
	}
}

func (b *Broker) emitMounted(m domain.MountIface) {
	b.emitMountSignal("Mounted", m)
}

func (b *Broker) emitUnmounted(m domain.MountIface) {
	b.emitMountSignal("Unmounted", m)
}

func (b *Broker) emitMountSignal(member string, m domain.MountIface) {
	if b.conn == nil {
		return
	}

	encoded := wire.EncodeMount(wire.FromMountIface(m))

	if err := b.conn.Emit(wire.BrokerObjectPath, wire.TrackerInterface+"."+member, encoded); err != nil {
		logrus.Warnf("broker: failed to emit %s: %v", member, err)
	}
}

// WrapHandle exposes prompt.Wrap to callers outside this package, so they
// can build a source reference for an interactive mount_location call
// without importing prompt directly.
func (b *Broker) WrapHandle(handle domain.Handle) (*prompt.Relay, domain.SourceRef) {
	return prompt.Wrap(b.conn, handle)
}
