package memory

import (
	"sort"

	"github.com/easeaico/project-pneuma/internal/types"
)

// MergeConversations reconciles two copies of a conversation document.
// For ids present in both, the copy with more exchanges wins; ties keep local.
func MergeConversations(local, remote *types.ConversationDocument) *types.ConversationDocument {
	byID := make(map[string]types.Conversation)
	var order []string

	add := func(doc *types.ConversationDocument, preferExisting bool) {
		if doc == nil {
			return
		}
		for _, conv := range doc.Conversations {
			existing, ok := byID[conv.ID]
			if !ok {
				byID[conv.ID] = conv
				order = append(order, conv.ID)
				continue
			}
			if len(conv.Exchanges) > len(existing.Exchanges) || (!preferExisting && len(conv.Exchanges) == len(existing.Exchanges)) {
				byID[conv.ID] = conv
			}
		}
	}
	add(local, false)
	add(remote, true)

	merged := &types.ConversationDocument{Conversations: make([]types.Conversation, 0, len(order))}
	for _, id := range order {
		merged.Conversations = append(merged.Conversations, byID[id])
	}
	sort.SliceStable(merged.Conversations, func(i, j int) bool {
		a, b := merged.Conversations[i], merged.Conversations[j]
		if a.StartedAt != b.StartedAt {
			return a.StartedAt < b.StartedAt
		}
		return a.ID < b.ID
	})
	return merged
}

// AppendExchange adds ex to the conversation id, creating it when missing.
func AppendExchange(doc *types.ConversationDocument, id string, startedAt int64, ex types.Exchange) {
	if doc == nil {
		return
	}
	if conv := FindConversation(doc, id); conv != nil {
		conv.Exchanges = append(conv.Exchanges, ex)
		return
	}
	doc.Conversations = append(doc.Conversations, types.Conversation{
		ID:        id,
		StartedAt: startedAt,
		Exchanges: []types.Exchange{ex},
	})
}

// FindConversation returns the conversation with id, or nil.
func FindConversation(doc *types.ConversationDocument, id string) *types.Conversation {
	if doc == nil {
		return nil
	}
	for i := range doc.Conversations {
		if doc.Conversations[i].ID == id {
			return &doc.Conversations[i]
		}
	}
	return nil
}

// CloneConversations returns a deep copy of doc.
func CloneConversations(doc *types.ConversationDocument) *types.ConversationDocument {
	out := &types.ConversationDocument{Conversations: make([]types.Conversation, 0, len(doc.Conversations))}
	for _, conv := range doc.Conversations {
		conv.Exchanges = append([]types.Exchange(nil), conv.Exchanges...)
		out.Conversations = append(out.Conversations, conv)
	}
	return out
}
