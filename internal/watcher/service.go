// Package watcher keeps per-agent system prompts in sync with prompt files
// on disk, so operators can edit an agent's instructions without restarting
// the process.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// PromptStore holds the current prompt per agent name.
type PromptStore struct {
	mu      sync.RWMutex
	prompts map[string]string
}

func NewPromptStore() *PromptStore {
	return &PromptStore{prompts: map[string]string{}}
}

func (p *PromptStore) Get(agent string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prompts[strings.ToLower(strings.TrimSpace(agent))]
}

func (p *PromptStore) set(agent, prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts[strings.ToLower(strings.TrimSpace(agent))] = prompt
}

type Service struct {
	root   string
	store  *PromptStore
	logger *slog.Logger
}

func New(root string, store *PromptStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{root: strings.TrimSpace(root), store: store, logger: logger}
}

// LoadAll reads every prompt file under the root. An absent root is not an
// error: agents then run on their default prompt.
func (s *Service) LoadAll() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("prompt root absent, using default prompts", "root", s.root)
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s.loadFile(filepath.Join(s.root, entry.Name()))
	}
	return nil
}

// Run watches the prompt root and reloads changed files until ctx is
// canceled. A missing root disables watching for the process lifetime.
func (s *Service) Run(ctx context.Context) error {
	if s.root == "" {
		<-ctx.Done()
		return nil
	}
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		<-ctx.Done()
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(s.root); err != nil {
		return err
	}
	s.logger.Info("prompt watcher started", "root", s.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			s.loadFile(event.Name)
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("prompt watcher error", "error", err)
		}
	}
}

// loadFile maps prompt files to agents by base name: writer.md → writer.
func (s *Service) loadFile(path string) {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	if ext != ".md" && ext != ".txt" {
		return
	}
	agent := strings.TrimSuffix(name, ext)
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("prompt read failed", "path", path, "error", err)
		return
	}
	s.store.set(agent, strings.TrimSpace(string(data)))
	s.logger.Info("prompt loaded", "agent", agent, "path", path)
}
