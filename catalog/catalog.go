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

// Package catalog implements the Mountable Catalog (spec.md §4.1): the set
// of mount types a peer is allowed to request, loaded from a directory of
// INI descriptor files and reloadable without restarting the daemon.
package catalog

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.CatalogIface = (*Catalog)(nil)

// Catalog holds the loaded set of MountableDescriptors behind a RWMutex, the
// same discipline handler/handlerDB.go uses for its handlerTree: readers
// (LookupForSpec, Enumerate) never block each other, and Reload swaps the
// whole slice in one critical section so a lookup never observes a
// half-rebuilt catalog.
type Catalog struct {
	sync.RWMutex

	io  domain.IOServiceIface
	dir string

	entries []domain.MountableDescriptor
}

// New builds an empty Catalog backed by io. Callers must call Load before
// the catalog is queried.
func New(io domain.IOServiceIface) *Catalog {
	return &Catalog{io: io}
}

// Load reads every descriptor file in dir and replaces the catalog's
// contents. It remembers dir so a later Reload re-scans the same directory.
func (c *Catalog) Load(dir string) error {
	entries, err := scan(c.io, dir)
	if err != nil {
		return err
	}

	c.Lock()
	defer c.Unlock()
	c.dir = dir
	c.entries = entries
	return nil
}

// Reload re-scans the directory passed to the last Load, replacing the
// catalog's contents atomically. It is the operation the SIGUSR1 reload
// signal (spec.md §4.9) drives.
func (c *Catalog) Reload() error {
	c.RLock()
	dir := c.dir
	c.RUnlock()

	entries, err := scan(c.io, dir)
	if err != nil {
		return err
	}

	c.Lock()
	defer c.Unlock()
	c.entries = entries
	return nil
}

func (c *Catalog) FindByType(mountableType string) (*domain.MountableDescriptor, bool) {
	c.RLock()
	defer c.RUnlock()

	for i := range c.entries {
		if c.entries[i].Type == mountableType {
			d := c.entries[i]
			return &d, true
		}
	}
	return nil, false
}

// LookupForSpec resolves a MountSpec to its descriptor via the spec's Type
// (invariant C1: a mount can only be requested for a type the catalog
// knows).
func (c *Catalog) LookupForSpec(spec domain.MountSpecIface) (*domain.MountableDescriptor, bool) {
	return c.FindByType(spec.Type())
}

func (c *Catalog) Enumerate() []domain.MountableDescriptor {
	c.RLock()
	defer c.RUnlock()

	out := make([]domain.MountableDescriptor, len(c.entries))
	copy(out, c.entries)
	return out
}

// scan reads every regular file directly under dir, parses it as an INI
// [Mount] section, and skips files that are unreadable, malformed, or
// missing a Type (spec.md §4.1) — one bad descriptor must never fail the
// whole load.
func scan(io domain.IOServiceIface, dir string) ([]domain.MountableDescriptor, error) {
	infos, err := io.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var entries []domain.MountableDescriptor
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}

		path := filepath.Join(dir, fi.Name())
		raw, err := io.ReadFile(path)
		if err != nil {
			logrus.Warnf("catalog: skipping %s: %v", path, err)
			continue
		}

		parsed, err := parseDescriptors(raw)
		if err != nil {
			logrus.Warnf("catalog: skipping %s: %v", path, err)
			continue
		}

		entries = append(entries, parsed...)
	}

	return entries, nil
}

// parseDescriptors parses a single [Mount] section into one
// MountableDescriptor per entry in its (possibly multi-valued) Type key,
// all sharing every other field (spec.md §4.1: "Type=smb;smb-share;" yields
// two descriptors, one for "smb" and one for "smb-share").
func parseDescriptors(raw []byte) ([]domain.MountableDescriptor, error) {
	// ';' separates list entries here, so it must not start an inline comment.
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, raw)
	if err != nil {
		return nil, err
	}

	sec := f.Section("Mount")

	types := splitList(sec.Key("Type").String())
	if len(types) == 0 {
		return nil, errNoType
	}

	exec := sec.Key("Exec").String()
	dbusName := sec.Key("DBusName").String()
	autoMount := sec.Key("AutoMount").MustBool(false)
	scheme := sec.Key("Scheme").String()
	schemeAliases := splitList(sec.Key("SchemeAliases").String())
	defaultPort := int32(sec.Key("DefaultPort").MustInt(0))
	hostnameIsInet := sec.Key("HostnameIsInetAddress").MustBool(false)

	descriptors := make([]domain.MountableDescriptor, len(types))
	for i, t := range types {
		descriptors[i] = domain.MountableDescriptor{
			Type:           t,
			Exec:           exec,
			DBusName:       dbusName,
			AutoMount:      autoMount,
			Scheme:         scheme,
			SchemeAliases:  schemeAliases,
			DefaultPort:    defaultPort,
			HostnameIsInet: hostnameIsInet,
		}
	}

	return descriptors, nil
}

// splitList parses a ";"-separated list, dropping empty entries (C1).
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var out []string
	for _, s := range strings.Split(raw, ";") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
