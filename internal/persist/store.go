package persist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/turntablefw/ttcore/internal/applog"
	"github.com/turntablefw/ttcore/internal/config"
)

// Store persists and retrieves the global configuration and named presets
//.
type Store interface {
	LoadConfig() (config.GlobalConfig, error)
	SaveConfig(cfg config.GlobalConfig) error
	LoadPreset(slot int) (config.Preset, error)
	SavePreset(slot int, preset config.Preset) error
	ResetAll() error
}

// FileStore is the on-disk Store implementation. All paths are sanitised
// and sandboxed under baseDir before ever touching the filesystem.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a FileStore rooted at baseDir, creating the
// directory if it does not already exist.
func NewFileStore(baseDir string) (*FileStore, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("persist: resolve base dir: %w", err)
	}
	if err := os.MkdirAll(absBase, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create base dir: %w", err)
	}
	return &FileStore{baseDir: absBase}, nil
}

const settingsFileName = "settings.bin"

func presetFileName(slot int) string {
	return fmt.Sprintf("preset_%d.bin", slot)
}

// sanitizePath rejects absolute paths and traversal attempts and confirms
// the resolved path stays under baseDir.
func (fs *FileStore) sanitizePath(name string) (string, bool) {
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", false
	}
	full := filepath.Join(fs.baseDir, name)
	rel, err := filepath.Rel(fs.baseDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return full, true
}

// LoadConfig reads settings.bin, migrating forward if its schema version is
// stale. A missing file yields config.Default() rather than an error, since
// first boot on fresh hardware never has one.
func (fs *FileStore) LoadConfig() (config.GlobalConfig, error) {
	path, ok := fs.sanitizePath(settingsFileName)
	if !ok {
		return config.GlobalConfig{}, fmt.Errorf("persist: invalid settings path")
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		applog.PersistenceEvent("load-config-default", path, nil)
		return config.Default(), nil
	}
	if err != nil {
		applog.PersistenceEvent("load-config", path, err)
		return config.GlobalConfig{}, err
	}
	version := uint32(0)
	if len(data) >= 4 {
		version = uint32(data[0]) | uint32(data[1])<<8 | uint32(data[2])<<16 | uint32(data[3])<<24
	}
	cfg, err := Unmarshal(data)
	if err != nil {
		applog.PersistenceEvent("load-config", path, err)
		return config.GlobalConfig{}, err
	}
	cfg.Validate()
	if version != 0 && version != config.SchemaVersion {
		applog.Migration(version, config.SchemaVersion, path)
		// Re-save in the current layout so the next boot loads without
		// migrating again.
		if migrated, merr := Marshal(cfg); merr == nil {
			if werr := os.WriteFile(path, migrated, 0o644); werr != nil {
				applog.PersistenceEvent("save-migrated", path, werr)
			}
		}
	}
	applog.PersistenceEvent("load-config", path, nil)
	return cfg, nil
}

// SaveConfig writes cfg to settings.bin in the current schema version.
func (fs *FileStore) SaveConfig(cfg config.GlobalConfig) error {
	path, ok := fs.sanitizePath(settingsFileName)
	if !ok {
		return fmt.Errorf("persist: invalid settings path")
	}
	data, err := Marshal(cfg)
	if err != nil {
		applog.PersistenceEvent("save-config", path, err)
		return err
	}
	err = os.WriteFile(path, data, 0o644)
	applog.PersistenceEvent("save-config", path, err)
	return err
}

// LoadPreset reads preset_<slot>.bin. slot must be in [0, NumPresetSlots).
func (fs *FileStore) LoadPreset(slot int) (config.Preset, error) {
	if slot < 0 || slot >= config.NumPresetSlots {
		return config.Preset{}, fmt.Errorf("persist: preset slot %d out of range", slot)
	}
	path, ok := fs.sanitizePath(presetFileName(slot))
	if !ok {
		return config.Preset{}, fmt.Errorf("persist: invalid preset path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		applog.PersistenceEvent("load-preset", path, err)
		return config.Preset{}, err
	}
	if len(data) < 4 {
		return config.Preset{}, fmt.Errorf("persist: truncated preset %d", slot)
	}
	nameLen := int(data[0])
	if len(data) < 1+nameLen+4 {
		return config.Preset{}, fmt.Errorf("persist: truncated preset %d name", slot)
	}
	name := string(data[1: 1+nameLen])
	cfg, err := Unmarshal(data[1+nameLen:])
	if err != nil {
		applog.PersistenceEvent("load-preset", path, err)
		return config.Preset{}, err
	}
	cfg.Validate()
	applog.PersistenceEvent("load-preset", path, nil)
	return config.Preset{Name: name, Config: cfg}, nil
}

// SavePreset writes preset as preset_<slot>.bin.
func (fs *FileStore) SavePreset(slot int, preset config.Preset) error {
	if slot < 0 || slot >= config.NumPresetSlots {
		return fmt.Errorf("persist: preset slot %d out of range", slot)
	}
	path, ok := fs.sanitizePath(presetFileName(slot))
	if !ok {
		return fmt.Errorf("persist: invalid preset path")
	}
	name := preset.Name
	if len(name) > 255 {
		name = name[:255]
	}
	body, err := Marshal(preset.Config)
	if err != nil {
		applog.PersistenceEvent("save-preset", path, err)
		return err
	}
	data := make([]byte, 0, 1+len(name)+len(body))
	data = append(data, byte(len(name)))
	data = append(data, name...)
	data = append(data, body...)
	err = os.WriteFile(path, data, 0o644)
	applog.PersistenceEvent("save-preset", path, err)
	return err
}

// ResetAll deletes settings.bin and every preset file, restoring the
// turntable to factory defaults on next boot.
func (fs *FileStore) ResetAll() error {
	names := []string{settingsFileName}
	for i := 0; i < config.NumPresetSlots; i++ {
		names = append(names, presetFileName(i))
	}
	var firstErr error
	for _, n := range names {
		path, ok := fs.sanitizePath(n)
		if !ok {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	applog.PersistenceEvent("reset-all", fs.baseDir, firstErr)
	return firstErr
}
