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
	"os"
	"path/filepath"
	"strings"
)

// computeFuseMountpoint implements invariant M3: the runtime dir is used
// unless it is indistinguishable from the cache dir (the classic symptom of
// a session with no XDG_RUNTIME_DIR set), in which case the legacy
// home-relative ".gvfs" path is used instead.
func computeFuseMountpoint(stableName string) string {
	escaped := escapeStableName(stableName)

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	cacheDir := userCacheDir()

	if runtimeDir == "" || runtimeDir == cacheDir {
		return filepath.Join(homeDir(), ".gvfs", escaped)
	}
	return filepath.Join(runtimeDir, "gvfs", escaped)
}

// escapeStableName percent-encodes everything outside the URI-unreserved
// set (matching the fuse daemon's own escaping, so a client computing its
// own mountpoint path from stable_name agrees with the broker's).
func escapeStableName(stableName string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(stableName); i++ {
		c := stableName[i]
		if isUnreservedURIByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreservedURIByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_' || c == '.' || c == '~':
		return true
	}
	return false
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return ""
}

func homeDir() string {
	if dir, err := os.UserHomeDir(); err == nil {
		return dir
	}
	return ""
}
