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

package sysio

import (
	"os"

	"github.com/spf13/afero"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.IOServiceIface = (*fileService)(nil)

// fileService backs the Mountable Catalog's directory scan. Tests swap in
// an IOMemFileService so descriptor files never have to touch disk.
type fileService struct {
	fsType domain.IOServiceType
	appFs  afero.Fs
}

func NewIOService(t domain.IOServiceType) domain.IOServiceIface {
	if t == domain.IOMemFileService {
		return &fileService{fsType: domain.IOMemFileService, appFs: afero.NewMemMapFs()}
	}

	return &fileService{fsType: domain.IOOsFileService, appFs: afero.NewOsFs()}
}

// NewIOServiceWithFs wraps an already-populated afero.Fs, letting tests
// write fixture files before handing the service to the code under test.
func NewIOServiceWithFs(t domain.IOServiceType, fs afero.Fs) domain.IOServiceIface {
	return &fileService{fsType: t, appFs: fs}
}

func (s *fileService) ServiceType() domain.IOServiceType {
	return s.fsType
}

func (s *fileService) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.appFs, path)
}

func (s *fileService) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(s.appFs, path)
}
