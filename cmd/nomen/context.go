package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"nomen/internal/config"
	"nomen/internal/filestore"
	"nomen/internal/library"
	"nomen/internal/logging"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
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
		cfg, resolved, _, err := config.Load(path)
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
	})
	return c.config, c.configErr
}

// session bundles what a command needs for one invocation. close releases
// the log file and the store.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *filestore.Store
	close  func()
}

// open builds the logger and, when withStore is set, the record store.
// Console logs go to the command's stderr so stdout stays parseable.
func (c *commandContext) open(cmd *cobra.Command, withStore bool) (*session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		Console:  cmd.ErrOrStderr(),
		FilePath: filepath.Join(cfg.Paths.LogDir, logging.LogFileName),
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	s := &session{cfg: cfg, logger: logger.Logger}
	if withStore {
		store, err := filestore.Open(cfg)
		if err != nil {
			_ = logger.Close()
			return nil, fmt.Errorf("open record store: %w", err)
		}
		s.store = store
	}
	s.close = func() {
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn("failed to close record store", logging.Error(err))
			}
		}
		_ = logger.Close()
	}
	return s, nil
}

func (s *session) library() *library.Service {
	return library.NewService(s.cfg, s.store, s.logger)
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
