package serve

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"scalesite/internal/domain/config"
)

const reloadDebounce = 200 * time.Millisecond

// startWatch watches the directory holding the config file; editors often
// replace files by rename, which a watch on the file itself would miss.
func (s *Server) startWatch(ctx context.Context) error {
	var err error
	s.watchOnce.Do(func() {
		w, e := fsnotify.NewWatcher()
		if e != nil {
			err = e
			return
		}
		if e := w.Add(filepath.Dir(s.opt.ConfigPath)); e != nil {
			_ = w.Close()
			err = e
			return
		}
		s.watcher = w
		go s.watchLoop(ctx)
	})
	return err
}

func (s *Server) watchLoop(ctx context.Context) {
	target := filepath.Clean(s.opt.ConfigPath)
	s.log.Info("watching config", zap.String("path", target))

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(reloadDebounce)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("watcher error", zap.Error(err))
		case <-debounce.C:
			s.Reload()
		}
	}
}

// Reload re-reads the config file and swaps in a new backend. A config that
// fails to load or validate leaves the running one in place.
func (s *Server) Reload() bool {
	cfg, err := config.Load(s.opt.ConfigPath)
	if err != nil {
		s.log.Warn("config reload failed", zap.String("path", s.opt.ConfigPath), zap.Error(err))
		return false
	}
	s.apply(cfg)
	s.log.Info("config reloaded", zap.String("cms", cfg.CMS.BaseURL))
	return true
}
