// Copyright 2019 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command quotad watches a directory and evicts its least-recently-used
// files once a configured size or age budget is exceeded.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/aclements/profkit/quota"
)

// fileConfig is the mapstructure-tagged shape of quotad's config file,
// following the same nested-struct-per-concern layout the rest of this
// toolchain's configs use.
type fileConfig struct {
	Managed ManagedConfig `mapstructure:"managed"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ManagedConfig struct {
	Directory     string `mapstructure:"directory"`
	DatabasePath  string `mapstructure:"database_path"`
	MaxSizeBytes  uint64 `mapstructure:"max_size_bytes"`
	MaxAgeSeconds uint64 `mapstructure:"max_age_seconds"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func main() {
	var flagConfig = flag.String("config", "quotad.yaml", "path to configuration `file`")
	flag.Parse()

	cfg, err := loadConfig(*flagConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, "quotad:", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "quotad:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("quotad exiting", zap.Error(err))
	}
}

func loadConfig(path string) (*fileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("logging.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg fileConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Managed.Directory == "" {
		return nil, fmt.Errorf("%s: managed.directory is required", path)
	}
	if cfg.Managed.DatabasePath == "" {
		cfg.Managed.DatabasePath = filepath.Join(cfg.Managed.Directory, ".quotad.db")
	}
	return &cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zapLevel
	return zcfg.Build()
}

func run(cfg *fileConfig, logger *zap.Logger) error {
	existing, err := quota.ListExistingFiles(cfg.Managed.Directory)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", cfg.Managed.Directory, err)
	}
	logger.Info("found existing files", zap.Int("count", len(existing)), zap.String("dir", cfg.Managed.Directory))

	inv, err := quota.OpenInventory(cfg.Managed.Directory, cfg.Managed.DatabasePath, existing)
	if err != nil {
		return fmt.Errorf("opening inventory: %w", err)
	}

	mgr := quota.NewManager(inv, quota.Config{
		MaxSizeBytes: cfg.Managed.MaxSizeBytes,
		MaxAge:       time.Duration(cfg.Managed.MaxAgeSeconds) * time.Second,
	}, logger)
	defer mgr.Close()

	notifier := mgr.Notifier()
	notifier.TriggerEvictionCheck()

	return watchDirectory(cfg.Managed.Directory, notifier, logger)
}

// watchDirectory turns raw fsnotify events into Notifier calls. It
// blocks until the watcher is closed or an unrecoverable error occurs.
func watchDirectory(dir string, notifier *quota.Notifier, logger *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(event, notifier, watcher, logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))
		}
	}
}

func handleEvent(event fsnotify.Event, notifier *quota.Notifier, watcher *fsnotify.Watcher, logger *zap.Logger) {
	info, statErr := os.Stat(event.Name)

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if statErr != nil {
			return
		}
		if info.IsDir() {
			if event.Op&fsnotify.Create != 0 {
				if err := watcher.Add(event.Name); err != nil {
					logger.Error("watching new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			return
		}
		if err := notifier.OnFileCreated(event.Name, uint64(info.Size()), time.Now()); err != nil {
			logger.Error("recording file creation", zap.String("path", event.Name), zap.Error(err))
		}

	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		// Removals and renames are not reported to the inventory:
		// the file stays recorded until an eviction pass tries to
		// delete it, finds it absent, and drops it then.
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
