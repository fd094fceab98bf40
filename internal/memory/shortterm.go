package memory

import "github.com/easeaico/project-pneuma/internal/types"

// PushShortTerm appends entry and evicts the oldest entries beyond the cap.
func PushShortTerm(doc *types.MemoryDocument, entry types.ShortTermEntry) {
	if doc == nil {
		return
	}
	doc.ShortTerm = append(doc.ShortTerm, entry)
	if len(doc.ShortTerm) > types.MaxShortTerm {
		doc.ShortTerm = append([]types.ShortTermEntry(nil), doc.ShortTerm[len(doc.ShortTerm)-types.MaxShortTerm:]...)
	}
}

// AddInsight stores insight unless it is empty or already present. Oldest insights are evicted beyond the cap.
func AddInsight(doc *types.MemoryDocument, insight string) bool {
	if doc == nil || insight == "" {
		return false
	}
	for _, existing := range doc.LongTerm {
		if existing == insight {
			return false
		}
	}
	doc.LongTerm = append(doc.LongTerm, insight)
	if len(doc.LongTerm) > types.MaxLongTerm {
		doc.LongTerm = append([]string(nil), doc.LongTerm[len(doc.LongTerm)-types.MaxLongTerm:]...)
	}
	return true
}

// normalizeDocument enforces caps and uniqueness on a loaded document.
func normalizeDocument(doc *types.MemoryDocument) *types.MemoryDocument {
	out := types.NewMemoryDocument()
	for _, entry := range doc.ShortTerm {
		PushShortTerm(out, entry)
	}
	for _, insight := range doc.LongTerm {
		AddInsight(out, insight)
	}
	return out
}
