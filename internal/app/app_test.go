package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
	"github.com/nhle/greenspace-sync/internal/ui/command"
	"github.com/nhle/greenspace-sync/internal/ui/detail"
	inboxview "github.com/nhle/greenspace-sync/internal/ui/inbox"
	"github.com/nhle/greenspace-sync/internal/ui/tasklist"
)

const orderID = "3f2b8c1e-9d4a-4e7b-8f6c-2a1d5e9b7c30"

func testConfig() *model.AppConfig {
	return &model.AppConfig{
		API: model.APIConfig{
			BaseURL: "http://127.0.0.1:1",
			OwnerID: "contractor-1",
			UserID:  "user-1",
		},
		Policy: model.PolicyConfig{LeadMinutes: 15},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	svc, err := NewServices(testConfig(), "", nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return New(svc)
}

func TestNewServices(t *testing.T) {
	t.Run("requires owner", func(t *testing.T) {
		cfg := testConfig()
		cfg.API.OwnerID = ""
		_, err := NewServices(cfg, "", nil, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("no inbox without user", func(t *testing.T) {
		cfg := testConfig()
		cfg.API.UserID = ""
		svc, err := NewServices(cfg, "", nil, zerolog.Nop())
		require.NoError(t, err)
		defer svc.Close()
		assert.Nil(t, svc.Inbox)
		assert.Nil(t, svc.Conn)
	})

	t.Run("push configured", func(t *testing.T) {
		cfg := testConfig()
		cfg.API.PushURL = "http://127.0.0.1:1/hubs/notification"
		svc, err := NewServices(cfg, "tok", nil, zerolog.Nop())
		require.NoError(t, err)
		defer svc.Close()
		assert.NotNil(t, svc.Conn)
		assert.NotNil(t, svc.Inbox)
		assert.Equal(t, 2, svc.Hub.Len())
	})
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"rejected", &gssync.RejectedError{Message: "too early, allowed from 08:45"}, "too early, allowed from 08:45"},
		{"partial reverted", &gssync.PartialTransitionError{Reverted: true, Err: errors.New("x")}, "order update failed, task status restored"},
		{"auth", fmt.Errorf("wrapped: %w", &source.AuthError{Message: "expired"}), "session expired, run 'greenspace login'"},
		{"validation", &source.ValidationError{StatusCode: 400, Messages: []string{"status: invalid"}}, "update rejected: status: invalid"},
		{"validation without messages", &source.ValidationError{StatusCode: 409}, "update rejected by server (409)"},
		{"network", &source.NetworkError{Op: "GET", StatusCode: 503}, "update failed: server unreachable"},
		{"canceled", context.Canceled, ""},
		{"other", errors.New("boom"), "update failed: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeError("update", tt.err))
		})
	}
}

func TestDetailNavigation(t *testing.T) {
	m := newTestModel(t)
	item := model.WorkItem{ID: "t1", Title: "Vườn đứng", Status: "Pending"}

	next, _ := m.Update(tasklist.SelectedItemMsg{Item: item})
	m = next.(Model)
	assert.Equal(t, ViewDetail, m.currentView)
	assert.Equal(t, "t1", m.detail.ItemID())

	next, _ = m.Update(detail.BackMsg{})
	m = next.(Model)
	assert.Equal(t, ViewList, m.currentView)
}

func TestBoardUpdateRefreshesDetail(t *testing.T) {
	m := newTestModel(t)
	item := model.WorkItem{ID: "t1", Status: "Pending"}

	next, _ := m.Update(tasklist.SelectedItemMsg{Item: item})
	m = next.(Model)

	item.Status = "Installing"
	next, _ = m.Update(gssync.UpdateMsg[model.WorkItem]{
		Collection: gssync.CachedCollection[model.WorkItem]{Items: []model.WorkItem{item}},
	})
	m = next.(Model)
	assert.Contains(t, m.detail.View(), "Đang lắp đặt")
}

func TestOpenFromNotification(t *testing.T) {
	m := newTestModel(t)
	m.svc.Board.Seed([]model.WorkItem{{
		ID:           "t1",
		Status:       "Installing",
		RelatedOrder: &model.OrderRef{ID: orderID, Status: "Installing"},
	}})
	m.currentView = ViewInbox

	next, _ := m.Update(inboxview.OpenMsg{Note: model.Notification{Content: "Mã đơn : " + orderID}})
	m = next.(Model)
	assert.Equal(t, ViewDetail, m.currentView)
	assert.Equal(t, "t1", m.detail.ItemID())

	next, _ = m.Update(detail.BackMsg{})
	m = next.(Model)
	assert.Equal(t, ViewInbox, m.currentView)

	next, _ = m.Update(inboxview.OpenMsg{Note: model.Notification{Content: "no order"}})
	m = next.(Model)
	assert.Equal(t, ViewInbox, m.currentView)
	assert.True(t, m.flashIsErr)
}

func TestTransitionResultFlash(t *testing.T) {
	m := newTestModel(t)
	m.busy = true

	next, _ := m.Update(transitionDoneMsg{item: model.WorkItem{ID: "t1", Title: "Sân thượng", Status: "Installing"}})
	m = next.(Model)
	assert.False(t, m.busy)
	assert.False(t, m.flashIsErr)
	assert.Equal(t, "Sân thượng is now Đang lắp đặt", m.flash)

	next, _ = m.Update(transitionDoneMsg{err: &gssync.RejectedError{Message: "not yet appointment day"}})
	m = next.(Model)
	assert.True(t, m.flashIsErr)
	assert.Equal(t, "not yet appointment day", m.flash)
}

func TestCommandPalette(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{':'}})
	m = next.(Model)
	assert.Equal(t, ViewCommand, m.currentView)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.Equal(t, ViewList, m.currentView)

	next, _ = m.Update(command.CommandMsg("inbox"))
	m = next.(Model)
	assert.Equal(t, ViewInbox, m.currentView)

	next, _ = m.Update(command.CommandMsg("bogus"))
	m = next.(Model)
	assert.True(t, m.flashIsErr)
	assert.Equal(t, "unknown command: bogus", m.flash)
}
