package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mediasort/internal/config"
	"mediasort/internal/logging"
	"mediasort/internal/operator"
)

type globalFlags struct {
	config         string
	logLevel       string
	nonInteractive bool
	assumeYes      bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// newOperator builds the terminal operator on the command's streams. Prompts
// need both streams to be terminals unless --non-interactive is set.
func (c *commandContext) newOperator(cmd *cobra.Command) *operator.Terminal {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	interactive := !c.flags.nonInteractive && operator.IsTerminal(in) && operator.IsTerminal(out)
	return operator.New(operator.Options{
		In:          in,
		Out:         out,
		Interactive: interactive,
		AssumeYes:   c.flags.assumeYes,
		Color:       operator.IsTerminal(out),
	})
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
