package service

import (
	"context"
	"log/slog"
	"sync"

	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
)

// Catalog holds the last fetched list of orderable menu items.
type Catalog struct {
	repo *repository.MenuRepository

	mu    sync.RWMutex
	items []models.MenuItem
}

func NewCatalog(repo *repository.MenuRepository) *Catalog {
	return &Catalog{repo: repo}
}

// Reload replaces the cached list. On error the previous list is kept.
func (c *Catalog) Reload(ctx context.Context) error {
	items, err := c.repo.ListAvailable(ctx)
	if err != nil {
		slog.Error("reload catalog", "error", err)
		return err
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// Items returns a copy of the cached list, ordered by name.
func (c *Catalog) Items() []models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Lookup(id uint) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return models.MenuItem{}, false
}

// OnMenuChange is the bridge handler for menu_items events.
func (c *Catalog) OnMenuChange(ctx context.Context, _ realtime.Event) {
	_ = c.Reload(ctx)
}
