package repository

import (
	"sync"
	"time"
)

// DeviceToken is one registered push target.
type DeviceToken struct {
	Token        string
	Platform     string // "android" or "ios"
	RegisteredAt time.Time
}

// TokenRepository manages device tokens for trade alert pushes.
type TokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]DeviceToken
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		tokens: make(map[string]DeviceToken),
	}
}

// Register adds or refreshes a device token.
func (r *TokenRepository) Register(token, platform string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens[token] = DeviceToken{
		Token:        token,
		Platform:     platform,
		RegisteredAt: time.Now(),
	}
}

// Unregister removes a device token.
func (r *TokenRepository) Unregister(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
}

// All returns every registered token.
func (r *TokenRepository) All() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tokens := make([]string, 0, len(r.tokens))
	for token := range r.tokens {
		tokens = append(tokens, token)
	}
	return tokens
}

// Count returns the number of registered tokens.
func (r *TokenRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
