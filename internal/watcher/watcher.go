// Package watcher observes replay save directories and reports new or
// updated .aoe2record files to the stats server.
//
// Two modes exist: a portable mtime scan (the default, matching the game's
// habit of writing replays on network shares and emulated filesystems where
// inotify is unreliable) and filesystem notifications via fsnotify.
package watcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/fsnotify/fsnotify"
)

const replayExt = ".aoe2record"

// Watcher reports replay files from a set of directories to the server's
// parse endpoint.
type Watcher struct {
	ServerURL string
	Dirs      []string
	Interval  time.Duration

	client *http.Client
	seen   map[string]time.Time
}

func New(serverURL string, dirs []string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		ServerURL: serverURL,
		Dirs:      dirs,
		Interval:  interval,
		client:    &http.Client{Timeout: 30 * time.Second},
		seen:      make(map[string]time.Time),
	}
}

// CandidateDirectories lists the replay save locations the game is known to
// use on the current OS, including emulation and store-install variants.
// Only directories that exist are returned.
func CandidateDirectories() []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		profile := os.Getenv("USERPROFILE")
		dirs = append(dirs,
			filepath.Join(profile, "Documents", "My Games", "Age of Empires 2 DE", "SaveGame"),
			filepath.Join(profile, "AppData", "Local", "Packages",
				"Microsoft.AgeofEmpiresII_8wekyb3d8bbwe", "LocalCache", "SaveGame"),
			`C:\GOG Games\Age of Empires II DE\SaveGame`,
			`C:\Age of Empires 2 DE\SaveGame`,
		)
	case "darwin":
		dirs = append(dirs,
			filepath.Join(home, "Documents", "My Games", "Age of Empires 2 DE", "SaveGame"),
			filepath.Join(home, "Library", "Application Support", "CrossOver", "Bottles", "AoE2DE", "SaveGame"),
			filepath.Join(home, "Parallels", "AoE2DE", "SaveGame"),
			filepath.Join(home, "Games", "AoE2DE", "SaveGame"),
		)
		// CrossOver Steam installs nest per-account SaveGame dirs.
		steamBase := filepath.Join(home, "Library", "Application Support", "CrossOver", "Bottles",
			"Steam", "drive_c", "users", "crossover", "Games", "Age of Empires 2 DE")
		if entries, err := os.ReadDir(steamBase); err == nil {
			for _, e := range entries {
				dirs = append(dirs, filepath.Join(steamBase, e.Name(), "SaveGame"))
			}
		}
	default:
		dirs = append(dirs,
			filepath.Join(home, ".wine", "drive_c", "Program Files (x86)", "Microsoft Games",
				"Age of Empires II DE", "SaveGame"),
			filepath.Join(home, ".wine", "drive_c", "Program Files", "Age of Empires II DE", "SaveGame"),
			filepath.Join(home, "Documents", "My Games", "Age of Empires 2 DE", "SaveGame"),
		)
	}

	existing := dirs[:0]
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			existing = append(existing, d)
		}
	}
	return existing
}

// RunPolling scans the watched directories every interval until ctx is
// cancelled, reporting files whose modification time changed since the last
// scan.
func (w *Watcher) RunPolling(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	for _, dir := range w.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("reading replay directory failed")
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), replayExt) {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if last, ok := w.seen[path]; ok && !info.ModTime().After(last) {
				continue
			}
			w.seen[path] = info.ModTime()
			w.report(ctx, path)
		}
	}
}

// RunEvents watches via filesystem notifications until ctx is cancelled.
func (w *Watcher) RunEvents(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.Dirs {
		if err := fsw.Add(dir); err != nil {
			log.WithError(err).WithField("dir", dir).Warn("watching replay directory failed")
			continue
		}
		log.WithField("dir", dir).Info("watching directory")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.HasSuffix(ev.Name, replayExt) {
				continue
			}
			w.report(ctx, ev.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Error("filesystem watcher error")
		}
	}
}

// report posts the replay path to the server's parse endpoint.
func (w *Watcher) report(ctx context.Context, path string) {
	body, err := json.Marshal(map[string]string{"replay_file": path})
	if err != nil {
		log.WithError(err).Error("encoding replay report failed")
		return
	}
	url := strings.TrimSuffix(w.ServerURL, "/") + "/api/parse_replay"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("building replay report failed")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := w.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("replay", path).Error("reporting replay failed")
		return
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"replay": path,
			"status": res.StatusCode,
		}).Error("server rejected replay report")
		return
	}
	log.WithField("replay", path).Info("replay reported")
}
