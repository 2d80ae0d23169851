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

// Package wire holds the stable D-Bus identifiers and the on-the-wire
// struct shapes spec.md §6 pins down. Object path, interface name and
// service name are external collaborators rely on; they are not redefined
// per daemon instance.
package wire

import "github.com/godbus/dbus/v5"

const (
	// BrokerBusName is the broker's own well-known bus name.
	BrokerBusName = "org.gtk.vfs.Daemon"

	// BrokerObjectPath is where the Tracker Service Facade is exported.
	BrokerObjectPath dbus.ObjectPath = "/org/gtk/vfs/Daemon"

	// TrackerInterface is the interface RegisterMount, LookupMount, etc.
	// are exported under.
	TrackerInterface = "org.gtk.vfs.MountTracker"

	// SpawnerInterface is the one-shot handshake interface a helper calls
	// back into during Path B of the Spawn Coordinator (spec.md §4.5).
	SpawnerInterface = "org.gtk.vfs.Spawner"

	// MountInterface is the interface the broker calls on a helper once it
	// has a live bus name for it.
	MountInterface = "org.gtk.vfs.Mountable"

	// MountableObjectPath is the well-known path every helper exports its
	// org.gtk.vfs.Mountable interface at (spec.md §4.5 Path A and B).
	MountableObjectPath dbus.ObjectPath = "/org/gtk/vfs/mountable"

	// MountOperationInterface is the per-request Prompt Relay interface
	// (spec.md §4.6).
	MountOperationInterface = "org.gtk.vfs.MountOperation"

	// SpawnObjectPathPrefix is prefixed to the Spawn Coordinator's
	// monotonic counter to build a fresh per-request object path
	// (spec.md §4.5 step 1, scenario S3).
	SpawnObjectPathPrefix = "/org/gtk/gvfs/exec_spaw/"

	// ErrorNamePrefix maps a domain.ErrorKind onto a D-Bus error name.
	ErrorNamePrefix = "org.gtk.vfs.Error."
)
