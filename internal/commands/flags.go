// Package commands implements the greenspace command line.
package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nhle/greenspace-sync/internal/app"
	"github.com/nhle/greenspace-sync/internal/credential"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source/greenspace"
	"github.com/nhle/greenspace-sync/internal/store"
)

// Flags holds the global flag values shared by every command.
type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
}

// Env is populated by the root Before hook. Commands hold a pointer to it
// from registration time.
type Env struct {
	Config *model.AppConfig
	Store  *store.SQLiteStore

	// tokenSource is replaced in tests.
	tokenSource func() (string, error)
	now         func() time.Time
}

// NewEnv returns an Env that reads the token from the system keyring.
func NewEnv() *Env {
	return &Env{tokenSource: credential.Token, now: time.Now}
}

// Open loads the configuration and opens the local cache.
func (e *Env) Open(flags *Flags) error {
	cfg, err := model.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	e.Config = cfg

	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	e.Store = st
	return nil
}

// Close releases the local cache.
func (e *Env) Close() error {
	if e.Store == nil {
		return nil
	}
	return e.Store.Close()
}

// Token returns the stored bearer token, failing early when the session
// has expired.
func (e *Env) Token() (string, error) {
	tok, err := e.tokenSource()
	if err != nil {
		return "", err
	}
	if _, err := credential.Check(tok, e.now()); err != nil {
		if errors.Is(err, credential.ErrSessionExpired) {
			return "", fmt.Errorf("%w; run 'greenspace login' again", err)
		}
		return "", err
	}
	return tok, nil
}

// Adapter builds a GreenSpace adapter for the signed-in session.
func (e *Env) Adapter() (*greenspace.Adapter, error) {
	tok, err := e.Token()
	if err != nil {
		return nil, err
	}
	return greenspace.NewAdapter(e.Config.API.BaseURL, tok), nil
}

// Services builds the synchronized session used by the board.
func (e *Env) Services() (*app.Services, error) {
	tok, err := e.Token()
	if err != nil {
		return nil, err
	}
	return app.NewServices(e.Config, tok, e.Store, logger())
}

// requireUser fails when no account id has been configured.
func (e *Env) requireUser() (string, error) {
	if e.Config.API.UserID == "" {
		return "", errors.New("api.user_id is not set; run 'greenspace login' first")
	}
	return e.Config.API.UserID, nil
}

func logger() zerolog.Logger {
	return log.Logger
}
