package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"
)

var ErrInvalidToken = errors.New("invalid session token")

const defaultTTL = 30 * 24 * time.Hour

// Manager issues and validates the opaque tokens that key anonymous carts.
// Tokens live in memory with an expiry sweep; anonymous carts expire with
// their session.
type Manager struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	ttl    time.Duration

	stop chan struct{}
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	m := &Manager{
		tokens: make(map[string]time.Time),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Issue creates a fresh anonymous session token.
func (m *Manager) Issue() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	m.mu.Lock()
	m.tokens[token] = time.Now().Add(m.ttl)
	m.mu.Unlock()

	return token, nil
}

// Validate reports whether the token is known and unexpired. A valid token
// has its expiry extended, so active sessions stay alive.
func (m *Manager) Validate(token string) bool {
	if token == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(m.tokens, token)
		return false
	}
	m.tokens[token] = time.Now().Add(m.ttl)
	return true
}

func (m *Manager) Close() {
	close(m.stop)
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for token, exp := range m.tokens {
				if now.After(exp) {
					delete(m.tokens, token)
				}
			}
			m.mu.Unlock()
		}
	}
}
