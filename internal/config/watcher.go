package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event bursts editors produce on save.
const reloadDebounce = 200 * time.Millisecond

type watchState struct {
	mu   sync.Mutex
	fw   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// Watch starts watching the configuration file and reloads on change.
// It returns ErrNoPath when no file path is configured and is a no-op
// when already watching. Call StopWatch to release the watcher.
func (c *Config) Watch() error {
	if c.path == "" {
		return ErrNoPath
	}

	c.watch.mu.Lock()
	defer c.watch.mu.Unlock()
	if c.watch.fw != nil {
		return nil
	}

	target, err := filepath.Abs(c.path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", c.path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: start watcher: %w", err)
	}
	// Watch the directory, not the file: editors that save atomically
	// replace the file, which drops a watch held on the file itself.
	dir := filepath.Dir(target)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("config: watch %s: %w", dir, err)
	}

	done := make(chan struct{})
	c.watch.fw = fw
	c.watch.done = done
	c.watch.wg.Add(1)
	go c.watchLoop(target, fw, done)

	c.log.Debug("watching %s", target)
	return nil
}

// StopWatch stops the file watcher. Safe to call when not watching.
func (c *Config) StopWatch() {
	c.watch.mu.Lock()
	defer c.watch.mu.Unlock()
	if c.watch.fw == nil {
		return
	}
	close(c.watch.done)
	c.watch.fw.Close()
	c.watch.wg.Wait()
	c.watch.fw = nil
	c.watch.done = nil
}

// Watching reports whether the file watcher is running.
func (c *Config) Watching() bool {
	c.watch.mu.Lock()
	defer c.watch.mu.Unlock()
	return c.watch.fw != nil
}

func (c *Config) watchLoop(target string, fw *fsnotify.Watcher, done chan struct{}) {
	defer c.watch.wg.Done()

	timer := time.NewTimer(reloadDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(reloadDebounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			c.log.Warn("watch error: %v", err)

		case <-timer.C:
			if err := c.Reload(); err != nil {
				c.log.Warn("reload failed: %v", err)
			} else {
				c.log.Info("reloaded %s", target)
			}

		case <-done:
			return
		}
	}
}
