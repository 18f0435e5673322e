package preview

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// startWatcher watches the root and every directory below it. The returned
// function stops the watcher and waits for its loop to exit.
func (s *Server) startWatcher(ctx context.Context) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := s.addWatchPaths(watcher, s.root); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.watchLoop(loopCtx, watcher)
	}()

	return func() {
		cancel()
		_ = watcher.Close()
		<-done
	}, nil
}

func (s *Server) addWatchPaths(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Debug("preview watcher error", "error", err)
		}
	}
}

func (s *Server) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := s.addWatchPaths(watcher, event.Name); err != nil {
				s.logger.Debug("preview watcher: failed to watch new dir", "path", event.Name, "error", err)
			}
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	rel, err := filepath.Rel(s.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	rel = filepath.ToSlash(rel)
	s.logger.Info("preview file changed", "path", rel, "op", event.Op.String())
	if s.onChange != nil {
		s.onChange(rel)
	}
}
