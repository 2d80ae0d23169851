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

package domain

import "os"

// IOServiceType selects the backing filesystem a file service talks to.
type IOServiceType int

const (
	IOOsFileService IOServiceType = iota
	IOMemFileService
)

// IOServiceIface abstracts the filesystem the Mountable Catalog scans for
// descriptor files, so tests can substitute an in-memory filesystem.
type IOServiceIface interface {
	ServiceType() IOServiceType
	ReadDir(path string) ([]os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}
