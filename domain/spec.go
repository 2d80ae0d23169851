package domain

// MountSpecIface is the opaque, hashable, comparable location descriptor
// spec.md §3 calls a "Mount Spec". The core never interprets its fields; it
// only compares, matches and serializes them.
type MountSpecIface interface {
	Type() string
	Field(name string) (string, bool)
	Fields() map[string]string

	// Equal reports whether two specs carry the same type and fields.
	Equal(other MountSpecIface) bool

	// Match reports whether this spec and other describe the same location
	// for the purposes of the Registry's M2 uniqueness invariant. Match is
	// a superset of Equal: a concrete implementation may, e.g., normalize
	// hostnames before comparing.
	Match(other MountSpecIface) bool

	// Hash returns a stable digest over the canonical encoding of the spec.
	// The Registry does not use it; it detects duplicates with Match.
	Hash() uint64
}
