package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/nhle/greenspace-sync/internal/cart"
	"github.com/nhle/greenspace-sync/internal/credential"
	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/policy"
	"github.com/nhle/greenspace-sync/tests/testutil"
)

var now = time.Date(2024, 3, 5, 8, 30, 0, 0, time.Local)

func token(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func testEnv(t *testing.T, tok string) *Env {
	t.Helper()
	return &Env{
		Config: &model.AppConfig{
			API:    model.APIConfig{BaseURL: "http://127.0.0.1:1", OwnerID: "c-1", UserID: "u-1"},
			Policy: model.PolicyConfig{LeadMinutes: 15},
		},
		Store:       testutil.NewTestStore(t),
		tokenSource: func() (string, error) { return tok, nil },
		now:         func() time.Time { return now },
	}
}

func TestEnvToken(t *testing.T) {
	valid := token(t, jwt.MapClaims{"sub": "u-1", "exp": now.Add(time.Hour).Unix()})
	got, err := testEnv(t, valid).Token()
	require.NoError(t, err)
	assert.Equal(t, valid, got)

	expired := token(t, jwt.MapClaims{"sub": "u-1", "exp": now.Add(-time.Hour).Unix()})
	_, err = testEnv(t, expired).Token()
	assert.ErrorIs(t, err, credential.ErrSessionExpired)
	assert.Contains(t, err.Error(), "greenspace login")

	env := testEnv(t, "")
	env.tokenSource = func() (string, error) { return "", credential.ErrNoToken }
	_, err = env.Token()
	assert.ErrorIs(t, err, credential.ErrNoToken)
}

func TestApplySession(t *testing.T) {
	tests := []struct {
		name      string
		owner     string
		flagOwner string
		wantOwner string
	}{
		{"defaults owner to account", "", "", "u-9"},
		{"keeps configured owner", "c-1", "", "c-1"},
		{"flag wins", "c-1", "c-2", "c-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &model.AppConfig{API: model.APIConfig{OwnerID: tt.owner}}
			applySession(cfg, credential.Session{UserID: "u-9"}, tt.flagOwner)
			assert.Equal(t, "u-9", cfg.API.UserID)
			assert.Equal(t, tt.wantOwner, cfg.API.OwnerID)
		})
	}
}

func TestFormatVND(t *testing.T) {
	assert.Equal(t, "0 ₫", formatVND(0))
	assert.Equal(t, "950 ₫", formatVND(950))
	assert.Equal(t, "1.250.000 ₫", formatVND(1_250_000))
	assert.Equal(t, "12.346 ₫", formatVND(12_345.6))
}

func TestDescribeRow(t *testing.T) {
	clock := policy.NewClockFunc(func() time.Time { return now }, 0)
	g := gate.New(clock, 15)

	pending := model.WorkItem{
		ID:          "t1",
		Status:      "Pending",
		Appointment: &model.Appointment{Date: "2024-03-05", Time: "09:00"},
	}
	row := describeRow(g, pending)
	assert.Equal(t, "Đang chờ", row.StatusLabel)
	assert.Equal(t, "Installing", row.Action)
	assert.False(t, row.Permitted)
	assert.Contains(t, row.Hint, "08:45")

	installing := pending
	installing.Status = "Installing"
	row = describeRow(g, installing)
	assert.Equal(t, "DoneInstalling", row.Action)
	assert.True(t, row.Permitted)

	done := pending
	done.Status = "Completed"
	row = describeRow(g, done)
	assert.Empty(t, row.Action)
}

func TestListCached(t *testing.T) {
	env := testEnv(t, "")
	env.Store = testutil.SeedWorkItems(t, "c-1",
		model.WorkItem{ID: "t1", OwnerID: "c-1", Title: "Vườn đứng", Status: "Installing", ModifiedAt: now},
		model.WorkItem{ID: "t2", OwnerID: "c-1", Title: "Sân thượng", Status: "Cancelled", ModifiedAt: now.Add(-time.Hour)},
	)
	ctx := context.Background()

	var buf bytes.Buffer
	cmd := &ListCmd{env: env, out: &buf, cached: true}
	require.NoError(t, cmd.run(ctx, nil))

	out := buf.String()
	assert.Contains(t, out, "Vườn đứng")
	assert.Contains(t, out, "Đang lắp đặt")
	assert.Contains(t, out, "Sân thượng")

	buf.Reset()
	cmd.status = "installing"
	require.NoError(t, cmd.run(ctx, nil))
	assert.NotContains(t, buf.String(), "Sân thượng")
}

type fakeCart struct {
	mu    sync.Mutex
	lines []model.CartLine
	sets  map[string]int
}

func (f *fakeCart) FetchCart(context.Context, string) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CartLine(nil), f.lines...), nil
}

func (f *fakeCart) UpdateCartQuantity(_ context.Context, _ string, productID string, qty int) ([]model.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets[productID] = qty
	out := f.lines[:0:0]
	for _, l := range f.lines {
		if l.ProductID == productID {
			l.Quantity = qty
		}
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	f.lines = out
	return append([]model.CartLine(nil), out...), nil
}

func TestCartSet(t *testing.T) {
	remote := &fakeCart{
		lines: []model.CartLine{
			{ProductID: "p1", ProductName: "Chậu gốm", Quantity: 1, UnitPrice: 150000},
			{ProductID: "p2", ProductName: "Đất sạch", Quantity: 2, UnitPrice: 40000},
		},
		sets: make(map[string]int),
	}

	var buf bytes.Buffer
	cmd := NewCartCmd(testEnv(t, ""))
	cmd.out = &buf
	cmd.remote = func() (cart.Remote, error) { return remote, nil }

	root := cmd.Register(&cli.Command{Name: "greenspace"})
	require.NoError(t, root.Run(context.Background(), []string{"greenspace", "cart", "set", "p1", "3"}))

	assert.Equal(t, map[string]int{"p1": 3}, remote.sets)
	assert.Contains(t, buf.String(), "530.000 ₫")

	root = cmd.Register(&cli.Command{Name: "greenspace"})
	err := root.Run(context.Background(), []string{"greenspace", "cart", "set", "p9", "1"})
	assert.ErrorIs(t, err, cart.ErrUnknownProduct)
}

func TestLogin(t *testing.T) {
	dir := t.TempDir()
	flags := &Flags{ConfigPath: filepath.Join(dir, "config.yaml")}
	env := testEnv(t, "")
	env.Config.API.OwnerID = ""
	env.Config.API.UserID = ""

	var buf bytes.Buffer
	cmd := NewLoginCmd(flags, env)
	cmd.out = &buf
	cmd.validate = func(_ context.Context, baseURL, tok string) (string, error) {
		assert.Equal(t, "https://api.example.vn", baseURL)
		assert.Equal(t, "abc", tok)
		return "Lan Nguyen", nil
	}
	cmd.saveToken = func(string) (credential.Session, error) {
		return credential.Session{UserID: "u-42", Name: "Lan"}, nil
	}

	root := cmd.Register(&cli.Command{Name: "greenspace"})
	err := root.Run(context.Background(), []string{
		"greenspace", "login", "--token", "Bearer abc", "--base-url", "https://api.example.vn/",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Signed in as Lan Nguyen")

	cfg, err := model.LoadConfig(flags.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "u-42", cfg.API.UserID)
	assert.Equal(t, "u-42", cfg.API.OwnerID)
	assert.Equal(t, "https://api.example.vn", cfg.API.BaseURL)
}

func TestLogout(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	cmd := NewLogoutCmd()
	cmd.out = &buf
	cmd.forget = func() error { calls++; return nil }

	root := cmd.Register(&cli.Command{Name: "greenspace"})
	require.NoError(t, root.Run(context.Background(), []string{"greenspace", "logout"}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Signed out\n", buf.String())
}
