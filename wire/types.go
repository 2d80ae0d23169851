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
	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/domain"
)

// MountStruct is the D-Bus struct godbus marshals for a single Mount tuple
// (spec.md §6). Field order is significant and must not change: it is part
// of the public interface.
type MountStruct struct {
	PeerID            string
	ObjectPath        dbus.ObjectPath
	DisplayName       string
	StableName        string
	XContentTypes     string
	Icon              string
	PreferredEncoding string
	UserVisible       bool
	FuseMountpoint    []byte
	MountSpec         MountSpecStruct
	DefaultLocation   []byte
}

// MountSpecStruct is the D-Bus variant shape of a MountSpec: a type tag and
// a flat string/string dict.
type MountSpecStruct struct {
	Type   string
	Fields map[string]string
}

// MountableStruct is the D-Bus struct for a single Mountable tuple
// (spec.md §6).
type MountableStruct struct {
	Type           string
	Scheme         string
	SchemeAliases  []string
	DefaultPort    int32
	HostnameIsInet bool
}

func specToStruct(v domain.MountSpecVariant) MountSpecStruct {
	fields := v.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return MountSpecStruct{Type: v.Type, Fields: fields}
}

func specFromStruct(s MountSpecStruct) domain.MountSpecVariant {
	return domain.MountSpecVariant{Type: s.Type, Fields: s.Fields}
}

// EncodeMount converts the internal MountWire into the D-Bus struct actually
// put on the wire. Absent fuse_mountpoint/default_location encode as empty
// byte arrays, never as a missing value (spec.md §6).
func EncodeMount(m domain.MountWire) MountStruct {
	fuseMountpoint := []byte(m.FuseMountpoint)
	if fuseMountpoint == nil {
		fuseMountpoint = []byte{}
	}
	defaultLocation := m.DefaultLocation
	if defaultLocation == nil {
		defaultLocation = []byte{}
	}

	return MountStruct{
		PeerID:            m.PeerID,
		ObjectPath:        dbus.ObjectPath(m.ObjectPath),
		DisplayName:       m.DisplayName,
		StableName:        m.StableName,
		XContentTypes:     m.XContentTypes,
		Icon:              m.Icon,
		PreferredEncoding: m.PreferredEncoding,
		UserVisible:       m.UserVisible,
		FuseMountpoint:    fuseMountpoint,
		MountSpec:         specToStruct(m.MountSpec),
		DefaultLocation:   defaultLocation,
	}
}

// FromMountIface flattens a live domain.MountIface into the MountWire shape
// EncodeMount expects, so the Tracker Service Facade and its bus adapter
// share one place that knows how a Mount becomes its wire tuple.
func FromMountIface(m domain.MountIface) domain.MountWire {
	var fuseMountpoint []byte
	if fmp := m.FuseMountpoint(); fmp != "" {
		fuseMountpoint = []byte(fmp)
	}

	var defaultLocation []byte
	if dl := m.DefaultLocation(); dl != "" {
		defaultLocation = []byte(dl)
	}

	var specWire domain.MountSpecVariant
	if spec := m.MountSpec(); spec != nil {
		specWire = domain.MountSpecVariant{Type: spec.Type(), Fields: spec.Fields()}
	}

	return domain.MountWire{
		PeerID:            m.PeerID(),
		ObjectPath:        m.ObjectPath(),
		DisplayName:       m.DisplayName(),
		StableName:        m.StableName(),
		XContentTypes:     m.XContentTypes(),
		Icon:              m.Icon(),
		PreferredEncoding: m.PreferredFilenameEncoding(),
		UserVisible:       m.UserVisible(),
		FuseMountpoint:    fuseMountpoint,
		MountSpec:         specWire,
		DefaultLocation:   defaultLocation,
	}
}

func DecodeMount(s MountStruct) domain.MountWire {
	return domain.MountWire{
		PeerID:            s.PeerID,
		ObjectPath:        string(s.ObjectPath),
		DisplayName:       s.DisplayName,
		StableName:        s.StableName,
		XContentTypes:     s.XContentTypes,
		Icon:              s.Icon,
		PreferredEncoding: s.PreferredEncoding,
		UserVisible:       s.UserVisible,
		FuseMountpoint:    s.FuseMountpoint,
		MountSpec:         specFromStruct(s.MountSpec),
		DefaultLocation:   s.DefaultLocation,
	}
}

// EncodeMountable converts a MountableDescriptor to its wire tuple. The
// scheme is EffectiveScheme, so an empty Scheme is sent as the Type; empty
// aliases serialize as an empty array, never nil (spec.md §6).
func EncodeMountable(d domain.MountableDescriptor) MountableStruct {
	aliases := d.SchemeAliases
	if aliases == nil {
		aliases = []string{}
	}

	return MountableStruct{
		Type:           d.Type,
		Scheme:         d.EffectiveScheme(),
		SchemeAliases:  aliases,
		DefaultPort:    d.DefaultPort,
		HostnameIsInet: d.HostnameIsInet,
	}
}

// MountSourceStruct is the wire shape of a domain.SourceRef: the
// (peer_id, object_path) pair a helper uses to call back into a Prompt
// Relay while servicing a Mount RPC (spec.md §4.6).
type MountSourceStruct struct {
	PeerID     string
	ObjectPath dbus.ObjectPath
}

// EncodeSourceRef converts a domain.SourceRef into its wire struct.
func EncodeSourceRef(s domain.SourceRef) MountSourceStruct {
	return MountSourceStruct{PeerID: s.PeerID, ObjectPath: dbus.ObjectPath(s.ObjectPath)}
}

// ToDBusError maps a domain.ErrorKind onto the D-Bus error name helpers and
// clients agree on (spec.md §7).
func ToDBusError(err *domain.BrokerError) *dbus.Error {
	return dbus.NewError(ErrorNamePrefix+string(err.Kind), []interface{}{err.Message})
}
