package main

import (
	"strings"
	"sync"

	"github.com/pokerjest/animatch/internal/app"
	"github.com/pokerjest/animatch/internal/config"
	"github.com/pokerjest/animatch/internal/db"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag *string
	dbFlag     *string

	configOnce sync.Once
	configErr  error

	appOnce sync.Once
	app     *app.App
	appErr  error
}

func newCommandContext(configFlag, dbFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, dbFlag: dbFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if err := config.LoadConfig(path); err != nil {
			c.configErr = err
			return
		}
		if c.dbFlag != nil && strings.TrimSpace(*c.dbFlag) != "" {
			config.AppConfig.Database.Path = strings.TrimSpace(*c.dbFlag)
		}
		config.ApplyLogConfig()
	})
	return config.AppConfig, c.configErr
}

// ensureApp opens the database and wires the matcher stack once per process.
func (c *commandContext) ensureApp() (*app.App, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}
		conn, err := db.Open(cfg.Database.Path)
		if err != nil {
			c.appErr = err
			return
		}
		db.DB = conn
		c.app = app.New(cfg, conn)
	})
	return c.app, c.appErr
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
