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

// Package busexport adapts domain.BrokerServiceIface onto the concrete
// method shapes godbus's reflection-based Export requires: every inbound
// call's last parameter is a dbus.Sender godbus fills in with the caller's
// bus name (mirroring spawn.spawnerObject.Spawned's use of the same
// mechanism), and every domain.BrokerError return value is translated to a
// *dbus.Error via wire.ToDBusError before it reaches the bus.
package busexport

import (
	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/wire"
)

// Tracker is the org.gtk.vfs.MountTracker object exported at
// wire.BrokerObjectPath.
type Tracker struct {
	broker domain.BrokerServiceIface
}

func NewTracker(broker domain.BrokerServiceIface) *Tracker {
	return &Tracker{broker: broker}
}

func (t *Tracker) RegisterMount(
	objPath dbus.ObjectPath,
	displayName string,
	stableName string,
	xContentTypes string,
	icon string,
	preferredEncoding string,
	userVisible bool,
	specWire wire.MountSpecStruct,
	defaultLocation []byte,
	sender dbus.Sender,
) *dbus.Error {
	err := t.broker.RegisterMount(
		string(sender),
		string(objPath),
		displayName,
		stableName,
		xContentTypes,
		icon,
		preferredEncoding,
		userVisible,
		decodeSpec(specWire),
		string(defaultLocation),
	)
	return asDBusError(err)
}

func (t *Tracker) RegisterFuse() *dbus.Error {
	t.broker.RegisterFuse()
	return nil
}

func (t *Tracker) LookupMount(specWire wire.MountSpecStruct) (wire.MountStruct, *dbus.Error) {
	m, err := t.broker.LookupMount(decodeSpec(specWire))
	if err != nil {
		return wire.MountStruct{}, asDBusError(err)
	}
	return wire.EncodeMount(wire.FromMountIface(m)), nil
}

func (t *Tracker) LookupMountByFusePath(path string) (wire.MountStruct, *dbus.Error) {
	m, err := t.broker.LookupMountByFusePath(path)
	if err != nil {
		return wire.MountStruct{}, asDBusError(err)
	}
	return wire.EncodeMount(wire.FromMountIface(m)), nil
}

func (t *Tracker) ListMounts() ([]wire.MountStruct, *dbus.Error) {
	mounts := t.broker.ListMounts()
	out := make([]wire.MountStruct, len(mounts))
	for i, m := range mounts {
		out[i] = wire.EncodeMount(wire.FromMountIface(m))
	}
	return out, nil
}

func (t *Tracker) ListMountTypes() ([]string, *dbus.Error) {
	return t.broker.ListMountTypes(), nil
}

func (t *Tracker) ListMountableInfo() ([]wire.MountableStruct, *dbus.Error) {
	descriptors := t.broker.ListMountableInfo()
	out := make([]wire.MountableStruct, len(descriptors))
	for i, d := range descriptors {
		out[i] = wire.EncodeMountable(d)
	}
	return out, nil
}

func (t *Tracker) MountLocation(specWire wire.MountSpecStruct, source wire.MountSourceStruct) *dbus.Error {
	err := t.broker.MountLocation(decodeSpec(specWire), domain.SourceRef{
		PeerID:     source.PeerID,
		ObjectPath: string(source.ObjectPath),
	})
	return asDBusError(err)
}

func decodeSpec(s wire.MountSpecStruct) domain.MountSpecVariant {
	return domain.MountSpecVariant{Type: s.Type, Fields: s.Fields}
}

func asDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	if berr, ok := err.(*domain.BrokerError); ok {
		return wire.ToDBusError(berr)
	}
	return dbus.MakeFailedError(err)
}
