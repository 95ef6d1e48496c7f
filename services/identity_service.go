package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Identity is what the external identity provider reports for a verified
// bearer token.
type Identity struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	SubscriptionTier string `json:"subscription_tier"`
}

// IdentityService verifies bearer tokens against the identity provider.
// Verification results are cached briefly so a burst of requests from the
// same client does not hammer the provider.
type IdentityService struct {
	url    string
	client *http.Client
	cache  *gocache.Cache
}

func NewIdentityService() *IdentityService {
	return &IdentityService{
		url: os.Getenv("IDENTITY_VERIFY_URL"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: gocache.New(time.Minute, 5*time.Minute),
	}
}

// NewIdentityServiceWithURL is for tests.
func NewIdentityServiceWithURL(url string) *IdentityService {
	s := NewIdentityService()
	s.url = url
	return s
}

// Verify resolves a bearer token to an identity. A token the provider
// rejects yields (nil, nil); only transport and decode problems are errors.
func (s *IdentityService) Verify(ctx context.Context, bearer string) (*Identity, error) {
	if bearer == "" {
		return nil, nil
	}
	if cached, found := s.cache.Get(bearer); found {
		return cached.(*Identity), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider status %d body=%q", resp.StatusCode, string(body))
	}

	var ident Identity
	if err := json.Unmarshal(body, &ident); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w body=%q", err, string(body))
	}
	if ident.ID == "" {
		return nil, fmt.Errorf("identity response missing id body=%q", string(body))
	}

	s.cache.Set(bearer, &ident, gocache.DefaultExpiration)
	return &ident, nil
}
