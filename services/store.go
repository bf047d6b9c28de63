package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"portkeeper/internal/logger"
	"portkeeper/internal/models"
)

// ConfigStore is the injected accessor for persisted TunnelConfig
// records, keyed by instance id. Persistence itself lives outside this
// core; FileStore is the default local implementation.
type ConfigStore interface {
	Get(instanceID string) (*models.TunnelConfig, error)
	Save(cfg *models.TunnelConfig) error
	Delete(instanceID string) error
	List() ([]models.TunnelConfig, error)
}

// FileStore keeps one JSON file per instance under <dir>/tunnels.
type FileStore struct {
	dir string
}

func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dir: filepath.Join(dataDir, "tunnels")}
}

func (s *FileStore) path(instanceID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", instanceID))
}

func (s *FileStore) Get(instanceID string) (*models.TunnelConfig, error) {
	data, err := os.ReadFile(s.path(instanceID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no tunnel config for instance %s", instanceID)
		}
		return nil, err
	}
	var cfg models.TunnelConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse tunnel config for instance %s: %w", instanceID, err)
	}
	return &cfg, nil
}

func (s *FileStore) Save(cfg *models.TunnelConfig) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create tunnel config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize tunnel config: %w", err)
	}
	if err := os.WriteFile(s.path(cfg.InstanceID), data, 0644); err != nil {
		return fmt.Errorf("failed to write tunnel config file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(instanceID string) error {
	path := s.path(instanceID)
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return os.Remove(path)
}

func (s *FileStore) List() ([]models.TunnelConfig, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var configs []models.TunnelConfig
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var cfg models.TunnelConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			logger.Warnf("Skipping unreadable tunnel config %s: %v", entry.Name(), err)
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// RememberURLs persists the last-known public URL whenever one becomes
// known, so the settings surface can show it across restarts.
func RememberURLs(store ConfigStore, bus *EventBus) {
	bus.SubscribeURL(func(evt URLEvent) {
		cfg, err := store.Get(evt.InstanceID)
		if err != nil {
			return
		}
		cfg.LastURL = evt.URL
		if err := store.Save(cfg); err != nil {
			logger.Warnf("Failed to record tunnel URL for instance %s: %v", evt.InstanceID, err)
		}
	})
}
