package pagecontext

import (
	"context"
	"log/slog"
	"time"
)

// Refresher periodically re-reads the setup directory so edited setups are
// served without a restart
type Refresher struct {
	loader   *Loader
	dir      string
	interval time.Duration
}

// NewRefresher creates a refresher for loader over dir
func NewRefresher(loader *Loader, dir string, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Refresher{
		loader:   loader,
		dir:      dir,
		interval: interval,
	}
}

// Start begins refreshing in a goroutine
func (r *Refresher) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Refresher) run(ctx context.Context) {
	slog.Info("setup refresher started", "dir", r.dir, "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("setup refresher stopped")
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

// Refresh reloads the directory and swaps the result in. Setups whose file
// was removed stop being served; a directory that yields nothing leaves the
// current setups in place.
func (r *Refresher) Refresh() int {
	fresh := NewLoader()
	if err := fresh.LoadFromDir(r.dir); err != nil {
		slog.Error("failed to refresh setups", "dir", r.dir, "error", err)
		return r.loader.Len()
	}

	if fresh.Len() == 0 && r.loader.Len() > 0 {
		slog.Warn("setup directory yielded no setups, keeping current ones", "dir", r.dir)
		return r.loader.Len()
	}

	before := r.loader.Len()
	r.loader.replace(fresh)

	if after := r.loader.Len(); after != before {
		slog.Info("setups refreshed", "before", before, "after", after)
	}
	return r.loader.Len()
}
