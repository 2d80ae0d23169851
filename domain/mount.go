package domain

// MountIface is a registered, live mount (spec.md §3). It is implemented by
// registry.Mount; the interface lives in domain so Registry, Broker and
// wire-encoding code can depend on the shape without importing registry.
type MountIface interface {
	PeerID() string
	ObjectPath() string
	DisplayName() string
	StableName() string
	XContentTypes() string
	Icon() string
	PreferredFilenameEncoding() string
	DefaultLocation() string
	UserVisible() bool
	FuseMountpoint() string
	MountSpec() MountSpecIface

	SetFuseMountpoint(path string)
	SetWatcherHandle(h WatcherHandle)
	WatcherHandle() WatcherHandle
}

// WatcherHandle is the subscription installed on a mount's owning peer so the
// Registry can be told when that peer vanishes (spec.md §4.8). Cancel stops
// the subscription without invoking its vanished callback.
type WatcherHandle interface {
	Cancel()
}

// RegistryIface is the Mount Registry contract (spec.md §4.2).
type RegistryIface interface {
	Insert(m MountIface)
	RemoveByPeer(peerID string) []MountIface
	Find(peerID, objectPath string) (MountIface, bool)
	MatchSpec(spec MountSpecIface) (MountIface, bool)
	FindByFusePath(path string) (MountIface, bool)
	Enumerate() []MountIface

	SetFuseAvailable(available bool)
	FuseAvailable() bool
}
