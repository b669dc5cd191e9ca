package vector

import "strings"

// CollectionFor derives the vector-store class name for one content source.
// The mapping is deterministic and collision-free: each source gets its own
// isolated collection, which is what makes deletion-by-source and citation
// mapping trivial.
//
// Weaviate class names must match ^[A-Z][_0-9A-Za-z]*$, so UUID dashes are
// folded to underscores and anything else non-alphanumeric is dropped.
func CollectionFor(sourceID string) string {
	var b strings.Builder
	b.WriteString("Content_")
	for _, r := range sourceID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	return b.String()
}
