package models

// Snapshot is the full state of one packing list at a known version.
//
// A snapshot returned by the server is canonical: Version is the marker
// assigned by the authoritative store and is bumped exactly once per applied
// operation. A projected snapshot (canonical state with still-pending local
// operations folded on top) uses the same type; it keeps the version of the
// canonical base it was derived from.
type Snapshot struct {
	EntityID string `json:"entity_id"`
	Title    string `json:"title"`
	Version  int64  `json:"version"`
	Items    []Item `json:"items"`
}

// Clone returns a deep copy of the snapshot. Items are copied so that
// mutating the clone never leaks into the original.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Items = make([]Item, len(s.Items))
	copy(out.Items, s.Items)
	return out
}
