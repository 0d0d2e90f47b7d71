package profile

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/logger"
)

// LightProfile is the minimal user context handed to the reasoning stages.
// It deliberately carries no contact data; anything sensitive travels
// through the masking pipeline instead.
type LightProfile struct {
	UserID       string   `json:"user_id"`
	Name         string   `json:"name"`
	LoyaltyTier  string   `json:"loyalty_tier"`
	FavoriteTags []string `json:"favorite_tags"`
}

// Service serves light profiles from a JSON file loaded at startup.
type Service struct {
	users  map[string]LightProfile
	logger *logger.Logger
}

// New loads the users file. A missing file is not an error; every lookup
// then falls back to a guest profile.
func New(usersFile string, log *logger.Logger) (*Service, error) {
	s := &Service{
		users:  make(map[string]LightProfile),
		logger: log,
	}

	data, err := os.ReadFile(usersFile)
	if os.IsNotExist(err) {
		log.Info("Users file not found, serving guest profiles only",
			zap.String("path", usersFile))
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	if err := json.Unmarshal(data, &s.users); err != nil {
		return nil, fmt.Errorf("failed to parse users file: %w", err)
	}

	log.Info("User profiles loaded",
		zap.String("path", usersFile),
		zap.Int("count", len(s.users)))

	return s, nil
}

// Get returns the light profile for a user, or a Bronze guest profile for
// unknown users.
func (s *Service) Get(userID string) LightProfile {
	if p, ok := s.users[userID]; ok {
		if p.UserID == "" {
			p.UserID = userID
		}
		if p.LoyaltyTier == "" {
			p.LoyaltyTier = "Bronze"
		}
		return p
	}

	return LightProfile{
		UserID:       userID,
		Name:         "Guest",
		LoyaltyTier:  "Bronze",
		FavoriteTags: []string{},
	}
}
