package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/commands"
	"github.com/nhle/greenspace-sync/internal/logging"
	"github.com/nhle/greenspace-sync/internal/model"
)

// Populated at build time via -ldflags.
var version = "dev"

func build() string {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				return mv
			}
		}
	}
	return version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCloser func()

	flags := &commands.Flags{}
	env := commands.NewEnv()

	app := &cli.Command{
		Name:      "greenspace",
		Usage:     "Work board for GreenSpace contractors",
		UsageText: "greenspace [global options] command [command options]",
		Description: `Keeps the work items, notifications and cart of a GreenSpace account in
sync with the server and gates installation actions by appointment time.

Run 'greenspace login' once, then 'greenspace' to open the board.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("GREENSPACE_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("GREENSPACE_LOG_FILE"),
				Value:       logging.DefaultFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("GREENSPACE_CONFIG"),
				Value:       model.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logging.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if err := env.Open(flags); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if err := env.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close cache")
			}
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tasksCmd := commands.NewTasksCmd(env)

	app = tasksCmd.Register(app)
	app = commands.NewListCmd(env).Register(app)
	app = commands.NewLoginCmd(flags, env).Register(app)
	app = commands.NewLogoutCmd().Register(app)
	app = commands.NewNotificationsCmd(env).Register(app)
	app = commands.NewCartCmd(env).Register(app)

	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'greenspace --help' for usage", c.Args().First())
		}
		return tasksCmd.Run(ctx, c)
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	stop()
	os.Exit(exitCode)
}
