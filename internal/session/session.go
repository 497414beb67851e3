// Package session holds the signed-in application context: the backend
// client, the current user, the cached site list and the session-scoped store.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zjrosen/portal/internal/cachemanager"
	"github.com/zjrosen/portal/internal/log"
	"github.com/zjrosen/portal/internal/portal"
)

// SitesTTL is how long the site list is served from cache.
const SitesTTL = 5 * time.Minute

const sitesKey = "sites"

// Backend is the subset of the portal client a session needs.
type Backend interface {
	Login(ctx context.Context, creds portal.Credentials) (string, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (portal.User, error)
	ListSites(ctx context.Context) ([]portal.Site, error)
	SetToken(token string)
	Token() string
}

// Context is created at sign-in or start-up and torn down at sign-out.
type Context struct {
	backend Backend
	path    string
	store   *Store
	sites   *cachemanager.ReadThroughCache[string, []portal.Site, struct{}]

	mu     sync.RWMutex
	user   portal.User
	closed bool
}

func newContext(backend Backend, path string, user portal.User) *Context {
	c := &Context{
		backend: backend,
		path:    path,
		store:   NewStore(),
		user:    user,
	}
	cache := cachemanager.NewInMemoryCacheManager[string, []portal.Site]("sites", SitesTTL, cachemanager.DefaultCleanupInterval)
	c.sites = cachemanager.NewReadThroughCache[string, []portal.Site, struct{}](cache, func(ctx context.Context, _ struct{}) ([]portal.Site, error) {
		return c.backend.ListSites(ctx)
	}, false)
	return c
}

// Open restores the session saved at path. It returns ErrSignedOut when
// there is none.
func Open(backend Backend, path string) (*Context, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	backend.SetToken(f.Token)
	log.Info(log.CatSession, "Session restored", "user", f.User.Email)
	return newContext(backend, path, f.User), nil
}

// SignIn authenticates, loads the user and persists the session to path.
func SignIn(ctx context.Context, backend Backend, path string, creds portal.Credentials) (*Context, error) {
	token, err := backend.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	user, err := backend.Me(ctx)
	if err != nil {
		backend.SetToken("")
		return nil, fmt.Errorf("loading profile: %w", err)
	}

	if err := SaveFile(path, File{Token: token, User: user, SavedAt: time.Now()}); err != nil {
		return nil, err
	}
	log.Info(log.CatSession, "Signed in", "user", user.Email)
	return newContext(backend, path, user), nil
}

func (c *Context) User() portal.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Store is discarded on Close.
func (c *Context) Store() *Store {
	return c.store
}

// Sites returns the user's sites, served from cache for SitesTTL.
func (c *Context) Sites(ctx context.Context) ([]portal.Site, error) {
	if c.isClosed() {
		return nil, ErrSignedOut
	}
	return c.sites.Get(ctx, sitesKey, struct{}{}, SitesTTL)
}

// ReloadSites bypasses the cache.
func (c *Context) ReloadSites(ctx context.Context) ([]portal.Site, error) {
	if c.isClosed() {
		return nil, ErrSignedOut
	}
	return c.sites.Reload(ctx, sitesKey, struct{}{}, SitesTTL)
}

// InvalidateSites forces the next Sites call to hit the backend.
func (c *Context) InvalidateSites() {
	_ = c.sites.Invalidate(context.Background(), sitesKey)
}

// RefreshUser reloads the profile from the backend and persists it.
func (c *Context) RefreshUser(ctx context.Context) (portal.User, error) {
	user, err := c.backend.Me(ctx)
	if err != nil {
		return portal.User{}, err
	}
	c.mu.Lock()
	c.user = user
	c.mu.Unlock()

	if err := SaveFile(c.path, File{Token: c.backend.Token(), User: user, SavedAt: time.Now()}); err != nil {
		log.ErrorErr(log.CatSession, "Failed to persist session", err)
	}
	return user, nil
}

// Sync re-reads the session file after it changed on disk. A changed token
// drops cached sites. ErrSignedOut means the session ended elsewhere; a
// later login elsewhere reopens a closed context.
func (c *Context) Sync() error {
	f, err := LoadFile(c.path)
	if errors.Is(err, ErrSignedOut) {
		c.Close()
		return ErrSignedOut
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	reopened := c.closed
	c.closed = false
	c.mu.Unlock()
	if reopened {
		log.Info(log.CatSession, "Session restored from disk")
	}

	if f.Token != c.backend.Token() {
		log.Info(log.CatSession, "Session token changed on disk")
		c.backend.SetToken(f.Token)
		c.InvalidateSites()
	}
	c.mu.Lock()
	c.user = f.User
	c.mu.Unlock()
	return nil
}

// SignOut ends the backend session, removes the session file and closes c.
func (c *Context) SignOut(ctx context.Context) error {
	logoutErr := c.backend.Logout(ctx)
	if logoutErr != nil {
		log.Warn(log.CatSession, "Backend logout failed", "error", logoutErr.Error())
	}
	c.Close()
	if err := RemoveFile(c.path); err != nil {
		return err
	}
	return logoutErr
}

// Close discards session-scoped state. It is safe to call more than once.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.store.clear()
	c.InvalidateSites()
	log.Debug(log.CatSession, "Session closed")
}

func (c *Context) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
