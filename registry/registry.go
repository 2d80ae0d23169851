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

package registry

import (
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.RegistryIface = (*Registry)(nil)

type mountKey struct {
	peerID     string
	objectPath string
}

// Registry is the process-wide Mount Registry (spec.md §4.2). Mutations
// only ever happen from the event loop (spec.md §5), but ListMounts
// snapshots and FindByFusePath lookups can race a concurrently-firing
// peer-vanished watcher, so state is still guarded by a RWMutex — the same
// discipline state/containerDB.go uses for its idTable.
type Registry struct {
	sync.RWMutex

	byKey map[mountKey]*Mount

	// fuseTree indexes mounts by "<fuseMountpoint>/" so FindByFusePath can
	// use go-immutable-radix's longest-prefix search while still respecting
	// path-segment boundaries (a trailing slash is appended to both the
	// indexed key and the query key so "mnt" never matches a sibling
	// "mntXYZ" — see buildPrefixKey).
	fuseTree *iradix.Tree

	fuseAvailable bool
}

func New() *Registry {
	return &Registry{
		byKey:    make(map[mountKey]*Mount),
		fuseTree: iradix.New(),
	}
}

func (r *Registry) Insert(m domain.MountIface) {
	mnt := m.(*Mount)
	key := mountKey{peerID: mnt.PeerID(), objectPath: mnt.ObjectPath()}

	r.Lock()
	defer r.Unlock()

	r.byKey[key] = mnt

	if fmp := mnt.FuseMountpoint(); fmp != "" {
		r.fuseTree, _, _ = r.fuseTree.Insert(buildPrefixKey(fmp), mnt)
	}
}

func (r *Registry) RemoveByPeer(peerID string) []domain.MountIface {
	r.Lock()
	defer r.Unlock()

	var removed []domain.MountIface

	for key, mnt := range r.byKey {
		if key.peerID != peerID {
			continue
		}

		delete(r.byKey, key)

		if fmp := mnt.FuseMountpoint(); fmp != "" {
			r.fuseTree, _, _ = r.fuseTree.Delete(buildPrefixKey(fmp))
		}

		removed = append(removed, mnt)
	}

	return removed
}

func (r *Registry) Find(peerID, objectPath string) (domain.MountIface, bool) {
	r.RLock()
	defer r.RUnlock()

	mnt, ok := r.byKey[mountKey{peerID: peerID, objectPath: objectPath}]
	if !ok {
		return nil, false
	}
	return mnt, true
}

// MatchSpec returns the first mount whose spec matches the given one
// (invariant M2). Iteration order over a Go map is unspecified, matching
// spec.md §4.3's "one wins" wording — the registry doesn't promise which.
func (r *Registry) MatchSpec(spec domain.MountSpecIface) (domain.MountIface, bool) {
	r.RLock()
	defer r.RUnlock()

	for _, mnt := range r.byKey {
		if mnt.MountSpec() != nil && mnt.MountSpec().Match(spec) {
			return mnt, true
		}
	}
	return nil, false
}

func (r *Registry) FindByFusePath(path string) (domain.MountIface, bool) {
	r.RLock()
	defer r.RUnlock()

	if !r.fuseAvailable {
		return nil, false
	}

	_, v, ok := r.fuseTree.Root().LongestPrefix([]byte(path + "/"))
	if !ok {
		return nil, false
	}
	return v.(*Mount), true
}

func (r *Registry) Enumerate() []domain.MountIface {
	r.RLock()
	defer r.RUnlock()

	out := make([]domain.MountIface, 0, len(r.byKey))
	for _, mnt := range r.byKey {
		out = append(out, mnt)
	}
	return out
}

func (r *Registry) SetFuseAvailable(available bool) {
	r.Lock()
	defer r.Unlock()
	r.fuseAvailable = available
}

func (r *Registry) FuseAvailable() bool {
	r.RLock()
	defer r.RUnlock()
	return r.fuseAvailable
}

// buildPrefixKey appends the path-segment boundary marker that makes
// longest-prefix search equivalent to spec.md §4.2's "equals or begins with
// mountpoint + '/'" rule.
func buildPrefixKey(fuseMountpoint string) []byte {
	return []byte(fuseMountpoint + "/")
}
