// Package auth resolves API keys to agent identities and mints the opaque
// ids and keys handed out at registration.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/deepclaw/deepclaw/internal/model"
	"github.com/deepclaw/deepclaw/internal/store"
)

var (
	ErrMissingKey = errors.New("api key required")
	ErrInvalidKey = errors.New("invalid api key")
)

// Opaque identifier sizes in raw bytes; base64url expands 3 bytes to 4 chars,
// giving 12-char agent/post/comment ids and 32-char api keys.
const (
	idBytes  = 9
	keyBytes = 24
)

type Service struct {
	store store.AgentStore
}

func NewService(store store.AgentStore) *Service {
	return &Service{store: store}
}

// Authenticate resolves a credential from the X-API-Key header to an agent.
// An empty credential is ErrMissingKey; an unknown one is ErrInvalidKey.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (model.Agent, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return model.Agent{}, ErrMissingKey
	}
	agent, err := s.store.GetAgentByKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Agent{}, ErrInvalidKey
		}
		return model.Agent{}, err
	}
	return agent, nil
}

// NewID returns a fresh 12-char URL-safe entity id.
func NewID() (string, error) {
	return randomToken(idBytes)
}

// NewAPIKey returns a fresh 32-char URL-safe secret key.
func NewAPIKey() (string, error) {
	return randomToken(keyBytes)
}

func randomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
