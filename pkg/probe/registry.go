package probe

import (
	"fmt"
)

// Identity names one discovered probe. Equality is structural over both
// fields; a Registry never holds two equal identities.
type Identity struct {
	ProductName  string
	SerialNumber int
}

func (id Identity) String() string {
	return fmt.Sprintf("%s - %d", id.ProductName, id.SerialNumber)
}

// Registry discovers USB-attached probes through the SDK and holds the
// result of the most recent discovery cycle. Not safe for concurrent use.
type Registry struct {
	sdk    SDK
	probes []Identity
}

// NewRegistry returns a Registry over the given SDK.
func NewRegistry(sdk SDK) *Registry {
	return &Registry{sdk: sdk}
}

// Discover enumerates USB-attached probes, replacing the previously
// discovered list wholesale. Duplicate identities are dropped. Zero
// attached probes is a successful empty result; only an enumeration
// fault against the SDK is an error, in which case the previous list is
// cleared as well.
func (r *Registry) Discover() ([]Identity, error) {
	r.probes = r.probes[:0]
	found, err := r.sdk.EnumerateUSBProbes()
	if err != nil {
		return nil, fmt.Errorf("probe discovery failed: %w", err)
	}
	for _, p := range found {
		id := Identity{ProductName: p.ProductName, SerialNumber: p.SerialNumber}
		if !r.contains(id) {
			r.probes = append(r.probes, id)
		}
	}
	return r.Probes(), nil
}

// Probes returns a copy of the most recent discovery result.
func (r *Registry) Probes() []Identity {
	out := make([]Identity, len(r.probes))
	copy(out, r.probes)
	return out
}

// Any reports whether the last discovery found at least one probe.
func (r *Registry) Any() bool {
	return len(r.probes) > 0
}

func (r *Registry) contains(id Identity) bool {
	for _, have := range r.probes {
		if have == id {
			return true
		}
	}
	return false
}
