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

package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nestybox/mountbrokerd/domain"
)

// TestEncodeMountRoundTrip covers spec.md §8 property 3: encoding a Mount to
// the wire form, decoding, and re-encoding yields byte-identical output.
func TestEncodeMountRoundTrip(t *testing.T) {
	want := domain.MountWire{
		PeerID:            ":1.42",
		ObjectPath:        "/org/gtk/vfs/mount/1",
		DisplayName:       "srv on docs",
		StableName:        "smb-share:srv,docs",
		XContentTypes:     "x-content/unix-software",
		Icon:              "folder-remote",
		PreferredEncoding: "utf8",
		UserVisible:       true,
		FuseMountpoint:    []byte("/run/user/1000/gvfs/smb:host=srv,share=docs"),
		MountSpec:         domain.MountSpecVariant{Type: "smb", Fields: map[string]string{"host": "srv", "share": "docs"}},
		DefaultLocation:   []byte("/"),
	}

	first := EncodeMount(want)
	decoded := DecodeMount(first)
	second := EncodeMount(decoded)

	assert.Equal(t, first, second)
}

// TestEncodeMountRoundTripNilSlices covers the same property for a Mount
// with absent FuseMountpoint/DefaultLocation, which EncodeMount normalizes
// to empty (non-nil) byte slices rather than leaving them nil.
func TestEncodeMountRoundTripNilSlices(t *testing.T) {
	want := domain.MountWire{
		PeerID:     ":1.7",
		ObjectPath: "/org/gtk/vfs/mount/2",
		MountSpec:  domain.MountSpecVariant{Type: "ftp", Fields: map[string]string{"host": "ftp.example.com"}},
	}

	first := EncodeMount(want)
	assert.Equal(t, []byte{}, first.FuseMountpoint)
	assert.Equal(t, []byte{}, first.DefaultLocation)

	decoded := DecodeMount(first)
	second := EncodeMount(decoded)

	assert.Equal(t, first, second)
}
