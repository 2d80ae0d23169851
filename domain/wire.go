package domain

// MountSpecVariant is the wire shape of a MountSpec (spec.md §6): a type tag
// plus a bag of string fields, exactly as it crosses the bus before
// mountspec.Parse turns it into a MountSpecIface.
type MountSpecVariant struct {
	Type   string
	Fields map[string]string
}

// MountWire is the Mount tuple spec.md §6 pins down field-order-for-field-
// order: PeerID, ObjectPath, DisplayName, StableName, XContentTypes, Icon,
// PreferredEncoding, UserVisible, FuseMountpoint, MountSpec, DefaultLocation.
type MountWire struct {
	PeerID            string
	ObjectPath        string
	DisplayName       string
	StableName        string
	XContentTypes     string
	Icon              string
	PreferredEncoding string
	UserVisible       bool
	FuseMountpoint    []byte
	MountSpec         MountSpecVariant
	DefaultLocation   []byte
}

// MountableWire is the Mountable tuple spec.md §6 pins down: Type, Scheme,
// SchemeAliases, DefaultPort, HostnameIsInet.
type MountableWire struct {
	Type           string
	Scheme         string
	SchemeAliases  []string
	DefaultPort    int32
	HostnameIsInet bool
}
