package domain

import "context"

// SpawnServiceIface is the Spawn Coordinator contract (spec.md §4.5): given
// a mountable and a spec, produce a live helper endpoint and forward the
// Mount RPC to it.
type SpawnServiceIface interface {
	Mount(
		ctx context.Context,
		descriptor *MountableDescriptor,
		spec MountSpecIface,
		source SourceRef,
		automount bool,
	) error
}
