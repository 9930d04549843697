package payments

import (
	"context"
	"sync"
	"time"
)

// tokenCache holds a provider access token until shortly before it expires.
type tokenCache struct {
	mu     sync.RWMutex
	token  string
	expiry time.Time
	now    func() time.Time
	fetch  func(ctx context.Context) (token string, expiresIn time.Duration, err error)
}

const tokenExpiryMargin = 5 * time.Minute

func (c *tokenCache) get(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != "" && c.now().Before(c.expiry) {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry) {
		return c.token, nil
	}

	token, expiresIn, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expiry = c.now().Add(expiresIn - tokenExpiryMargin)
	return token, nil
}

func (c *tokenCache) invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}
