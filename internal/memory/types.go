package memory

import "context"

// Turn is one user/bot exchange. Bot text is always the unmasked reply;
// tokens never reach memory.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// StoreInfo is the last-seen-store snapshot kept in memory.
type StoreInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is the per-user memory document.
type Profile struct {
	Preferences   map[string][]string `json:"preferences"`
	LoyaltyTier   string              `json:"loyalty_tier"`
	History       []Turn              `json:"history"`
	LastSeenStore *StoreInfo          `json:"last_seen_store"`
	LastOrder     map[string]any      `json:"last_order"`
}

// NewProfile returns a fresh memory document for a first-seen user.
func NewProfile() *Profile {
	return &Profile{
		Preferences: map[string][]string{
			"favorite_drinks": {},
			"dislikes":        {},
			"allergies":       {},
		},
		LoyaltyTier: "Bronze",
		History:     []Turn{},
	}
}

// Store is the volatile user-memory collaborator. Implementations must
// serialize concurrent writes per user identifier.
type Store interface {
	// Get returns the user's memory document, creating it on first access.
	Get(ctx context.Context, userID string) (*Profile, error)
	// AppendTurn appends one exchange to the conversation history, keeping
	// only the most recent turns (oldest evicted first).
	AppendTurn(ctx context.Context, userID, userMessage, botReply string) error
	// StorePreference appends a value to a preference list if absent.
	StorePreference(ctx context.Context, userID, key, value string) error
	// SetLastSeenStore records the store last surfaced to the user.
	SetLastSeenStore(ctx context.Context, userID string, store StoreInfo) error
	// SetLastOrder records the user's last order payload.
	SetLastOrder(ctx context.Context, userID string, order map[string]any) error
	// Reset discards one user's memory.
	Reset(ctx context.Context, userID string) error
	// ResetAll discards every user's memory.
	ResetAll(ctx context.Context) error
	Close() error
}
