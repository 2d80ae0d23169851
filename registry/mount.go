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

// Package registry implements the Mount Registry and Mountable Catalog's
// sibling concern: tracking currently-active mounts (spec.md §4.2).
package registry

import (
	"sync"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.MountIface = (*Mount)(nil)

// Mount is a registered, live mount (spec.md §3). All getters take the
// internal lock the same way state/container.go's container type does,
// since a Mount can be read (e.g. for a ListMounts snapshot) while its
// watcher goroutine concurrently tears it down.
type Mount struct {
	intLock sync.RWMutex

	peerID            string
	objectPath        string
	displayName       string
	stableName        string
	xContentTypes     string
	icon              string
	preferredEncoding string
	defaultLocation   string
	userVisible       bool
	fuseMountpoint    string
	mountSpec         domain.MountSpecIface
	watcherHandle     domain.WatcherHandle
}

// NewMount builds a Mount from the fields register_mount is handed (spec.md
// §4.3). fuseMountpoint is computed by the caller per invariant M3 before
// the Mount is constructed.
func NewMount(
	peerID string,
	objectPath string,
	displayName string,
	stableName string,
	xContentTypes string,
	icon string,
	preferredEncoding string,
	userVisible bool,
	fuseMountpoint string,
	spec domain.MountSpecIface,
	defaultLocation string,
) *Mount {
	return &Mount{
		peerID:            peerID,
		objectPath:        objectPath,
		displayName:       displayName,
		stableName:        stableName,
		xContentTypes:     xContentTypes,
		icon:              icon,
		preferredEncoding: preferredEncoding,
		userVisible:       userVisible,
		fuseMountpoint:    fuseMountpoint,
		mountSpec:         spec,
		defaultLocation:   defaultLocation,
	}
}

func (m *Mount) PeerID() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.peerID
}

func (m *Mount) ObjectPath() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.objectPath
}

func (m *Mount) DisplayName() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.displayName
}

func (m *Mount) StableName() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.stableName
}

func (m *Mount) XContentTypes() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.xContentTypes
}

func (m *Mount) Icon() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.icon
}

func (m *Mount) PreferredFilenameEncoding() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.preferredEncoding
}

func (m *Mount) DefaultLocation() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.defaultLocation
}

func (m *Mount) UserVisible() bool {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.userVisible
}

func (m *Mount) FuseMountpoint() string {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.fuseMountpoint
}

func (m *Mount) SetFuseMountpoint(path string) {
	m.intLock.Lock()
	defer m.intLock.Unlock()
	m.fuseMountpoint = path
}

func (m *Mount) MountSpec() domain.MountSpecIface {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.mountSpec
}

func (m *Mount) SetWatcherHandle(h domain.WatcherHandle) {
	m.intLock.Lock()
	defer m.intLock.Unlock()
	m.watcherHandle = h
}

func (m *Mount) WatcherHandle() domain.WatcherHandle {
	m.intLock.RLock()
	defer m.intLock.RUnlock()
	return m.watcherHandle
}

