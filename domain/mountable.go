package domain

// MountableDescriptor is a static record describing how to start (or reach)
// a helper process for a given mount type (spec.md §3).
type MountableDescriptor struct {
	Type             string
	Exec             string
	DBusName         string
	AutoMount        bool
	Scheme           string
	SchemeAliases    []string
	DefaultPort      int32
	HostnameIsInet   bool
}

// HasHelper reports invariant C2: a descriptor must carry either a launch
// command or an already-claimed bus name, or mount attempts for its type
// fail with a generic Failed error.
func (d *MountableDescriptor) HasHelper() bool {
	return d.Exec != "" || d.DBusName != ""
}

// EffectiveScheme returns Scheme, defaulting to Type when unset.
func (d *MountableDescriptor) EffectiveScheme() string {
	if d.Scheme != "" {
		return d.Scheme
	}
	return d.Type
}

// CatalogIface is the Mountable Catalog contract (spec.md §4.1).
type CatalogIface interface {
	Load(dir string) error
	Reload() error
	FindByType(mountableType string) (*MountableDescriptor, bool)
	LookupForSpec(spec MountSpecIface) (*MountableDescriptor, bool)
	Enumerate() []MountableDescriptor
}
