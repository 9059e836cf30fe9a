package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"crosscheck/internal/config"
	"crosscheck/internal/ledger"
	"crosscheck/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.ToLower(strings.TrimSpace(*c.logLevelFlag)); level != "" {
				cfg.Logging.Level = level
				if err := cfg.Validate(); err != nil {
					c.configErr = err
					return
				}
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg)
}

// withLedger opens the configured ledger for reading. Writers must hold the
// run lock as well; see withLockedLedger.
func (c *commandContext) withLedger(ctx context.Context, fn func(*ledger.SQLiteStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(ctx, cfg.Paths.LedgerPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withReadOnlyLedger opens the ledger without creating or changing it. A
// ledger that does not exist yet reads as empty.
func (c *commandContext) withReadOnlyLedger(ctx context.Context, fn func(ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.OpenReadOnly(ctx, cfg.Paths.LedgerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return fn(ledger.NewMemoryStore())
	}
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withLockedLedger holds the exclusive ledger lock while fn runs.
func (c *commandContext) withLockedLedger(ctx context.Context, fn func(*ledger.SQLiteStore) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock, err := ledger.AcquireLock(cfg.Paths.LedgerPath)
	if err != nil {
		return err
	}
	defer lock.Release()
	return c.withLedger(ctx, fn)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
