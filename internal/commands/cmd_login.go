package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/credential"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source/greenspace"
)

type LoginCmd struct {
	flags *Flags
	env   *Env
	out   io.Writer

	// saveToken and validate are replaced in tests.
	saveToken func(token string) (credential.Session, error)
	validate  func(ctx context.Context, baseURL, token string) (string, error)

	// flags
	token   string
	ownerID string
	baseURL string
}

// NewLoginCmd creates a new login command
func NewLoginCmd(flags *Flags, env *Env) *LoginCmd {
	cmd := &LoginCmd{flags: flags, env: env, out: os.Stdout}
	cmd.saveToken = func(token string) (credential.Session, error) {
		return credential.SaveToken(token, env.now())
	}
	cmd.validate = func(ctx context.Context, baseURL, token string) (string, error) {
		return greenspace.NewAdapter(baseURL, token).ValidateConnection(ctx)
	}
	return cmd
}

// Register adds the login command to the application
func (cmd *LoginCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:      "login",
		Usage:     "Store an API token and remember the signed-in account",
		UsageText: "greenspace login [--token TOKEN] [--owner-id ID] [--base-url URL]",
		Description: `Checks the token against the server, stores it in the system keyring and
writes the account id to the config file.

Without --token the token is read from an interactive prompt. The owner id
defaults to the account id in the token.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "token",
				Usage:       "bearer token issued by the GreenSpace web app",
				Sources:     cli.EnvVars("GREENSPACE_TOKEN"),
				Destination: &cmd.token,
			},
			&cli.StringFlag{
				Name:        "owner-id",
				Usage:       "contractor or designer id whose work items are synced",
				Destination: &cmd.ownerID,
			},
			&cli.StringFlag{
				Name:        "base-url",
				Usage:       "API root URL",
				Destination: &cmd.baseURL,
			},
		},
		Action: cmd.run,
	})
	return root
}

func (cmd *LoginCmd) run(ctx context.Context, _ *cli.Command) error {
	if cmd.token == "" {
		if err := cmd.prompt(); err != nil {
			return err
		}
	}
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd.token), "Bearer "))
	if token == "" {
		return errors.New("no token given")
	}

	cfg := cmd.env.Config
	if cmd.baseURL != "" {
		cfg.API.BaseURL = strings.TrimRight(cmd.baseURL, "/")
	}

	name, err := cmd.validate(ctx, cfg.API.BaseURL, token)
	if err != nil {
		return err
	}

	sess, err := cmd.saveToken(token)
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	applySession(cfg, sess, cmd.ownerID)
	if err := model.SaveConfig(cmd.flags.ConfigPath, cfg); err != nil {
		return err
	}

	if name == "" {
		name = sess.Name
	}
	fmt.Fprintf(cmd.out, "Signed in as %s\n", name)
	if !sess.ExpiresAt.IsZero() {
		fmt.Fprintf(cmd.out, "Session expires %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (cmd *LoginCmd) prompt() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API token").
				Description("Copy the bearer token from the GreenSpace web app.").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}).
				Value(&cmd.token),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// applySession records the account in cfg. An explicit owner id wins;
// otherwise a missing owner id defaults to the account id.
func applySession(cfg *model.AppConfig, sess credential.Session, ownerID string) {
	if sess.UserID != "" {
		cfg.API.UserID = sess.UserID
	}
	switch {
	case ownerID != "":
		cfg.API.OwnerID = ownerID
	case cfg.API.OwnerID == "":
		cfg.API.OwnerID = cfg.API.UserID
	}
}

type LogoutCmd struct {
	out io.Writer

	// forget is replaced in tests.
	forget func() error
}

// NewLogoutCmd creates a new logout command
func NewLogoutCmd() *LogoutCmd {
	return &LogoutCmd{out: os.Stdout, forget: credential.Forget}
}

// Register adds the logout command to the application
func (cmd *LogoutCmd) Register(root *cli.Command) *cli.Command {
	root.Commands = append(root.Commands, &cli.Command{
		Name:  "logout",
		Usage: "Remove the stored API token",
		Action: func(context.Context, *cli.Command) error {
			if err := cmd.forget(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.out, "Signed out")
			return nil
		},
	})
	return root
}
