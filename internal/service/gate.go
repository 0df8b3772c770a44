package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lodelita/internal/domain"
	"lodelita/internal/models"
	"lodelita/internal/realtime"
	"lodelita/internal/repository"
	"lodelita/internal/ws"
)

// Availability is what the public page needs to decide whether the order form is usable.
type Availability struct {
	State    string `json:"state"`
	MenuOpen bool   `json:"menu_open"`
	CanOrder bool   `json:"can_order"`
	Start    string `json:"start"`
	Cutoff   string `json:"cutoff"`
}

// State places now inside the daily window: before the start minute, at or after the cutoff
// minute, or open in between. Only hour and minute of now are used.
func State(now time.Time, s models.AppSettings) string {
	m := now.Hour()*60 + now.Minute()
	switch {
	case m < s.StartMinutes():
		return domain.WindowBefore
	case m >= s.CutoffMinutes():
		return domain.WindowAfter
	default:
		return domain.WindowOpen
	}
}

func availability(now time.Time, s models.AppSettings) Availability {
	state := State(now, s)
	return Availability{
		State:    state,
		MenuOpen: s.MenuOpen,
		CanOrder: s.MenuOpen && state == domain.WindowOpen,
		Start:    s.StartLabel(),
		Cutoff:   s.CutoffLabel(),
	}
}

// GateMessage is broadcast to websocket clients when the window state flips.
type GateMessage struct {
	Type         string       `json:"type"`
	Availability Availability `json:"availability"`
}

// Gate caches the settings row and evaluates the ordering window against the clock.
type Gate struct {
	repo     *repository.SettingsRepository
	clock    *Clock
	hub      *ws.Hub
	interval time.Duration

	mu       sync.RWMutex
	settings models.AppSettings
	last     Availability
}

func NewGate(repo *repository.SettingsRepository, clock *Clock, hub *ws.Hub, interval time.Duration) *Gate {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Gate{repo: repo, clock: clock, hub: hub, interval: interval, settings: models.DefaultSettings()}
}

// Reload re-reads the settings row. If it cannot be read the default window is used.
func (g *Gate) Reload(ctx context.Context) error {
	s, err := g.repo.Get(ctx)
	g.mu.Lock()
	if err != nil {
		g.settings = models.DefaultSettings()
	} else {
		g.settings = *s
	}
	g.mu.Unlock()
	if err != nil {
		slog.Error("load settings, using defaults", "error", err)
	}
	g.check()
	return err
}

func (g *Gate) Settings() models.AppSettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

func (g *Gate) Availability() Availability {
	return availability(g.clock.Now(), g.Settings())
}

func (g *Gate) CanOrder() bool { return g.Availability().CanOrder }

// OnSettingsChange is the bridge handler for app_settings events.
func (g *Gate) OnSettingsChange(ctx context.Context, _ realtime.Event) {
	_ = g.Reload(ctx)
}

// Run re-evaluates the window every interval until ctx is done.
func (g *Gate) Run(ctx context.Context) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.check()
		}
	}
}

// check broadcasts the availability when it differs from the last evaluation.
func (g *Gate) check() {
	a := g.Availability()
	g.mu.Lock()
	changed := a != g.last
	g.last = a
	g.mu.Unlock()
	if changed && g.hub != nil {
		g.hub.BroadcastAll(GateMessage{Type: "gate", Availability: a})
	}
}
