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

package spawn

import "github.com/godbus/dbus/v5"

// spawnResult is what a Spawned call delivers back to spawnAndHandshake.
type spawnResult struct {
	succeeded    bool
	errorMessage string
	sender       string
}

// spawnerObject is exported as org.gtk.vfs.Spawner at a fresh, per-request
// object path. A just-spawned helper calls its one Spawned method exactly
// once to complete the handshake (spec.md §4.5 step 3, original_source
// daemon/mount.c's spawn_mount_handle_spawned).
type spawnerObject struct {
	result chan spawnResult
}

func newSpawner() *spawnerObject {
	return &spawnerObject{result: make(chan spawnResult, 1)}
}

// Spawned is the one exported D-Bus method. sender is filled in by godbus
// from the message header, never by the caller's arguments — it is the
// bus name the spawned helper now owns, which becomes the peer the
// coordinator forwards the Mount RPC to.
func (s *spawnerObject) Spawned(succeeded bool, errorMessage string, sender dbus.Sender) *dbus.Error {
	select {
	case s.result <- spawnResult{succeeded: succeeded, errorMessage: errorMessage, sender: string(sender)}:
	default:
		// A second Spawned call on an already-completed handshake is
		// ignored: the buffered channel already holds the first result,
		// and spawnAndHandshake unexports this object once it returns.
	}
	return nil
}
