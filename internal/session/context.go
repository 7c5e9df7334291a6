package session

import (
	"sync"

	"github.com/webitel/screens-rating/internal/domain/model"
)

// Context holds the process-wide current session.
type Context struct {
	mu      sync.RWMutex
	current *Session
}

func NewContext() *Context {
	return &Context{}
}

func (c *Context) Login(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}

func (c *Context) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
}

func (c *Context) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// CreateFromCurrent returns an independent copy of the current session.
func (c *Context) CreateFromCurrent() (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil, model.ErrNoSession
	}
	return c.current.WithTarget(c.current.Target), nil
}
