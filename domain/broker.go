package domain

// BrokerServiceIface is the Tracker Service Facade (spec.md §4.3): the
// externally-callable operations, each taking the calling peer's bus
// identity explicitly rather than relying on package-global state.
type BrokerServiceIface interface {
	Setup(
		catalog CatalogIface,
		registry RegistryIface,
		spawner SpawnServiceIface,
	)

	RegisterMount(
		sender string,
		objPath string,
		displayName string,
		stableName string,
		xContentTypes string,
		icon string,
		preferredEncoding string,
		userVisible bool,
		specWire MountSpecVariant,
		defaultLocation string,
	) error

	RegisterFuse()

	LookupMount(specWire MountSpecVariant) (MountIface, error)

	LookupMountByFusePath(path string) (MountIface, error)

	ListMounts() []MountIface

	ListMountTypes() []string

	ListMountableInfo() []MountableDescriptor

	MountLocation(specWire MountSpecVariant, source SourceRef) error
}
