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

package broker

import (
	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/busconn"
	"github.com/nestybox/mountbrokerd/domain"
)

// watchPeer is a thin seam over busconn.WatchPeer so Broker's tests can
// substitute a fake liveness watcher without a real bus connection.
var watchPeer = func(conn *dbus.Conn, peerID string, onVanished func()) (domain.WatcherHandle, error) {
	return busconn.WatchPeer(conn, peerID, onVanished)
}
