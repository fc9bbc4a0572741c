package domain

// Metadata is a free-form document annotation map. The store only accepts
// scalar values, so callers pass arbitrary maps through CleanMetadata before
// persistence.
type Metadata map[string]any

// CleanMetadata returns a copy of m containing only scalar values. Nested
// maps, slices, and nil values are dropped.
func CleanMetadata(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of base with overlay keys applied on top.
func (m Metadata) Merge(overlay Metadata) Metadata {
	out := make(Metadata, len(m)+len(overlay))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}
