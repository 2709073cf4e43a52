// Package relay owns the persistent relay-mapping store: which source
// channels forward their messages to which destination channels.
package relay

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Config is the root object persisted to the backing file.
type Config struct {
	RelayChannels map[string][]string `json:"relayChannels"`
}

// DefaultConfig returns an empty relay configuration.
func DefaultConfig() *Config {
	return &Config{RelayChannels: map[string][]string{}}
}

// Store is the mapping store consumed by the router and the command flows.
type Store interface {
	// RelayChannels returns the current source -> destinations mapping.
	RelayChannels() (map[string][]string, error)

	// AddMapping appends destID to the destination list for sourceID,
	// creating the list if absent. Duplicates are not collapsed.
	AddMapping(sourceID, destID string) error

	// RemoveMapping removes one occurrence of destID from sourceID's list
	// and reports whether anything was removed. A list left empty is
	// deleted along with its key.
	RemoveMapping(sourceID, destID string) (bool, error)

	// RemoveSource deletes the entire entry for sourceID and reports
	// whether it existed.
	RemoveSource(sourceID string) (bool, error)
}

// FileStore persists the mapping to a single JSON file. Every call reloads
// from disk and every mutation writes the whole file back before returning;
// concurrent mutations are last-write-wins.
type FileStore struct {
	path string
	log  *logrus.Entry
}

// NewFileStore creates a store backed by the file at path. The file is
// created on first use.
func NewFileStore(path string, log *logrus.Entry) *FileStore {
	return &FileStore{
		path: path,
		log:  log.WithField("module", "relaystore"),
	}
}

func (s *FileStore) load() (*Config, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			if err := s.save(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if len(bytes.TrimSpace(data)) == 0 || json.Unmarshal(data, cfg) != nil {
		// Empty or malformed file: reset to the default instead of failing
		// every command until someone repairs the file by hand.
		s.log.WithField("path", s.path).Warn("relay config is not valid JSON, resetting to default")
		cfg = DefaultConfig()
		if err := s.save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if cfg.RelayChannels == nil {
		cfg.RelayChannels = map[string][]string{}
	}
	return cfg, nil
}

func (s *FileStore) save(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileStore) RelayChannels() (map[string][]string, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	return cfg.RelayChannels, nil
}

func (s *FileStore) AddMapping(sourceID, destID string) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}
	cfg.RelayChannels[sourceID] = append(cfg.RelayChannels[sourceID], destID)
	if err := s.save(cfg); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"source": sourceID, "dest": destID}).Info("relay mapping added")
	return nil
}

func (s *FileStore) RemoveMapping(sourceID, destID string) (bool, error) {
	cfg, err := s.load()
	if err != nil {
		return false, err
	}
	dests, ok := cfg.RelayChannels[sourceID]
	if !ok {
		return false, nil
	}

	idx := -1
	for i, d := range dests {
		if d == destID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	dests = append(dests[:idx], dests[idx+1:]...)
	if len(dests) == 0 {
		// An empty destination list is never persisted.
		delete(cfg.RelayChannels, sourceID)
	} else {
		cfg.RelayChannels[sourceID] = dests
	}
	if err := s.save(cfg); err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"source": sourceID, "dest": destID}).Info("relay mapping removed")
	return true, nil
}

func (s *FileStore) RemoveSource(sourceID string) (bool, error) {
	cfg, err := s.load()
	if err != nil {
		return false, err
	}
	if _, ok := cfg.RelayChannels[sourceID]; !ok {
		return false, nil
	}
	delete(cfg.RelayChannels, sourceID)
	if err := s.save(cfg); err != nil {
		return false, err
	}
	s.log.WithField("source", sourceID).Info("relay source removed")
	return true, nil
}
