package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/greenspace-sync/internal/crossref"
	"github.com/nhle/greenspace-sync/internal/gate"
	"github.com/nhle/greenspace-sync/internal/keys"
	"github.com/nhle/greenspace-sync/internal/model"
	"github.com/nhle/greenspace-sync/internal/source"
	"github.com/nhle/greenspace-sync/internal/status"
	gssync "github.com/nhle/greenspace-sync/internal/sync"
	"github.com/nhle/greenspace-sync/internal/ui"
	"github.com/nhle/greenspace-sync/internal/ui/command"
	"github.com/nhle/greenspace-sync/internal/ui/detail"
	helpview "github.com/nhle/greenspace-sync/internal/ui/help"
	inboxview "github.com/nhle/greenspace-sync/internal/ui/inbox"
	"github.com/nhle/greenspace-sync/internal/ui/tasklist"
)

// evaluationsMsg carries a changed set of gate results to the UI.
type evaluationsMsg struct {
	evals gate.Evaluations
}

// refreshDoneMsg reports the outcome of a visible refresh.
type refreshDoneMsg struct {
	err error
}

// transitionDoneMsg reports the outcome of a start or finish action.
type transitionDoneMsg struct {
	item model.WorkItem
	err  error
}

// markReadDoneMsg reports the outcome of marking a notification read.
type markReadDoneMsg struct {
	err error
}

// pushStateMsg reports a push connection change.
type pushStateMsg struct {
	connected bool
	err       error
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewInbox
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and the session services.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	svc          *Services
	keys         *keys.KeyMap
	taskList     tasklist.Model
	detail       detail.Model
	inboxView    inboxview.Model
	helpView     helpview.Model
	commandView  command.Model
	evals        gate.Evaluations
	ready        bool
	busy         bool
	pushOnline   bool
	flash        string
	flashIsErr   bool

	// ctx bounds every background command; cancel is called on quit.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new root application model for svc.
func New(svc *Services) Model {
	k := keys.DefaultKeyMap()
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		currentView: ViewList,
		svc:         svc,
		keys:        k,
		taskList:    tasklist.New(k, 80, 24),
		detail:      detail.New(k, 80, 24),
		inboxView:   inboxview.New(k, 80, 24),
		helpView:    helpview.New(k, svc.Gate.LeadMinutes(), 80, 24),
		commandView: command.New(80, 24),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Init seeds the board from the local cache, starts the gate monitor and
// the push connection, and issues the first visible refresh.
func (m Model) Init() tea.Cmd {
	m.svc.SeedFromStore(m.ctx)
	go m.svc.Monitor.Run(m.ctx)

	cmds := []tea.Cmd{
		m.taskList.Init(),
		m.svc.Board.WaitForUpdate(),
		m.waitForEvaluations(),
		m.refresh(),
		m.connectPush(),
	}
	if m.svc.Inbox != nil {
		cmds = append(cmds, m.svc.Inbox.WaitForUpdate(), m.refreshInbox())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		return m, nil

	case gssync.UpdateMsg[model.WorkItem]:
		cmd := m.taskList.SetCollection(msg.Collection)
		m.syncDetail(msg.Collection.Items)
		return m, tea.Batch(cmd, m.svc.Board.WaitForUpdate())

	case gssync.UpdateMsg[model.Notification]:
		cmd := m.inboxView.SetCollection(msg.Collection)
		return m, tea.Batch(cmd, m.svc.Inbox.WaitForUpdate())

	case evaluationsMsg:
		m.evals = msg.evals
		m.taskList.SetEvaluations(msg.evals)
		if id := m.detail.ItemID(); id != "" {
			m.detail.SetEvaluation(m.evaluation(id))
		}
		return m, m.waitForEvaluations()

	case refreshDoneMsg:
		if msg.err != nil {
			m.setError(describeError("refresh", msg.err))
		}
		return m, nil

	case transitionDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(describeError("update", msg.err))
			return m, nil
		}
		task, _ := msg.item.Describe()
		m.setNotice(fmt.Sprintf("%s is now %s", itemName(msg.item), task.Label))
		return m, nil

	case markReadDoneMsg:
		if msg.err != nil {
			m.setError(describeError("mark read", msg.err))
		}
		return m, nil

	case pushStateMsg:
		m.pushOnline = msg.connected
		if msg.err != nil {
			m.setError("live updates unavailable: " + msg.err.Error())
		}
		if msg.connected {
			return m, m.watchPush()
		}
		return m, nil

	case tasklist.SelectedItemMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetItem(msg.Item, m.evaluation(msg.Item.ID))
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		if m.previousView == ViewInbox {
			m.currentView = ViewInbox
		}
		return m, nil

	case inboxview.BackMsg:
		m.currentView = ViewList
		return m, nil

	case detail.ActionMsg:
		cmd := m.runAction(msg.Action, msg.Item)
		return m, cmd

	case inboxview.OpenMsg:
		m.openFromNotification(msg.Note)
		return m, nil

	case inboxview.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey applies global bindings before delegating to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.currentView == ViewCommand {
		if msg.String() == "esc" {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		if m.currentView == ViewInbox {
			return m, m.refreshInbox()
		}
		return m, m.refresh()

	case key.Matches(msg, m.keys.Inbox):
		if m.currentView == ViewList && m.svc.Inbox != nil {
			m.previousView = m.currentView
			m.currentView = ViewInbox
			return m, nil
		}
	}

	if m.currentView == ViewHelp && key.Matches(msg, m.keys.Back) {
		m.currentView = m.previousView
		return m, nil
	}

	if m.currentView == ViewList {
		switch {
		case key.Matches(msg, m.keys.Start):
			if item, ok := m.taskList.Selected(); ok {
				cmd := m.runAction(detail.ActionStart, item)
				return m, cmd
			}
			return m, nil
		case key.Matches(msg, m.keys.Finish):
			if item, ok := m.taskList.Selected(); ok {
				cmd := m.runAction(detail.ActionFinish, item)
				return m, cmd
			}
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	// The board spinner keeps ticking while another view is active.
	if m.currentView != ViewList {
		if _, ok := msg.(tea.KeyMsg); !ok {
			var listCmd tea.Cmd
			m.taskList, listCmd = m.taskList.Update(msg)
			cmd = tea.Batch(cmd, listCmd)
		}
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "GreenSpace"
	if n := m.inboxView.Unseen(); n > 0 {
		headerTitle = fmt.Sprintf("GreenSpace [%d new]", n)
	}
	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()
	flash := m.layout.RenderFlash(m.flash, m.flashIsErr)
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, flash, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the sync state.
func (m Model) syncStatus() string {
	snap := m.svc.Board.Snapshot()
	live := "offline"
	if m.pushOnline {
		live = "live"
	}

	switch {
	case m.busy:
		return "updating… | " + live
	case snap.Pending:
		return "syncing… | " + live
	case snap.Err != nil:
		return "⚠ stale | " + live
	default:
		return fmt.Sprintf("%d items | %s", len(snap.Items), live)
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | s start | f finish | j/k scroll"
	case ViewInbox:
		return "esc back | enter open work item | m mark read | r refresh"
	default:
		return fmt.Sprintf("q quit | ? help | s start | f finish | n inbox | r refresh | tab filter: %s", m.taskList.FilterLabel())
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case command.CmdRefresh, "sync":
		return tea.Batch(m.refresh(), m.refreshInbox())
	case command.CmdBoard:
		m.currentView = ViewList
		return nil
	case command.CmdInbox:
		if m.svc.Inbox != nil {
			m.currentView = ViewInbox
		}
		return nil
	case command.CmdStart, command.CmdFinish:
		item, ok := m.taskList.Selected()
		if !ok {
			return nil
		}
		return m.runAction(cmd, item)
	case command.CmdHelp:
		m.currentView = ViewHelp
		return nil
	case command.CmdQuit, "q":
		return m.quit()
	default:
		m.setError("unknown command: " + cmd)
		return nil
	}
}

// runAction transitions item in the background.
func (m *Model) runAction(action string, item model.WorkItem) tea.Cmd {
	if m.busy {
		return nil
	}

	target, targetOrder := status.TaskInstalling, status.OrderInstalling
	if action == detail.ActionFinish {
		target, targetOrder = status.TaskDoneInstalling, status.OrderDoneInstalling
	}

	m.busy = true
	m.flash = ""
	ctx := m.ctx
	t := m.svc.Transitioner
	return func() tea.Msg {
		updated, err := t.Transition(ctx, item, target, targetOrder)
		return transitionDoneMsg{item: updated, err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	ctx := m.ctx
	board := m.svc.Board
	return func() tea.Msg {
		return refreshDoneMsg{err: board.Refresh(ctx, gssync.ModeVisible)}
	}
}

func (m Model) refreshInbox() tea.Cmd {
	if m.svc.Inbox == nil {
		return nil
	}
	ctx := m.ctx
	in := m.svc.Inbox
	return func() tea.Msg {
		return refreshDoneMsg{err: in.Refresh(ctx, gssync.ModeVisible)}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	ctx := m.ctx
	in := m.svc.Inbox
	return func() tea.Msg {
		return markReadDoneMsg{err: in.MarkSeen(ctx, id)}
	}
}

// waitForEvaluations blocks until the gate monitor publishes a change.
func (m Model) waitForEvaluations() tea.Cmd {
	ch := m.svc.Monitor.Updates()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case evals := <-ch:
			return evaluationsMsg{evals: evals}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) connectPush() tea.Cmd {
	conn := m.svc.Conn
	if conn == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		if err := conn.Connect(ctx); err != nil {
			return pushStateMsg{err: err}
		}
		return pushStateMsg{connected: true}
	}
}

// watchPush reports when the push connection drops.
func (m Model) watchPush() tea.Cmd {
	conn := m.svc.Conn
	return func() tea.Msg {
		<-conn.Done()
		return pushStateMsg{err: conn.Err()}
	}
}

func (m *Model) quit() tea.Cmd {
	m.cancel()
	m.svc.Close()
	return tea.Quit
}

// openFromNotification shows the work item of the order a notification
// refers to.
func (m *Model) openFromNotification(n model.Notification) {
	orderID, items, ok := crossref.Build(m.svc.Board.Items()).ForNotification(n)
	switch {
	case !ok:
		m.setError("notification does not reference an order")
	case len(items) == 0:
		m.setError("no work item for order " + orderID)
	default:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetItem(items[0], m.evaluation(items[0].ID))
	}
}

// syncDetail keeps the detail view on the latest copy of its item.
func (m *Model) syncDetail(items []model.WorkItem) {
	id := m.detail.ItemID()
	if id == "" {
		return
	}
	for _, it := range items {
		if it.ID == id {
			m.detail.SetItem(it, m.evaluation(id))
			return
		}
	}
}

func (m Model) evaluation(id string) *gate.Result {
	res, ok := m.evals[id]
	if !ok {
		return nil
	}
	return &res
}

func (m *Model) setError(msg string) {
	m.flash = msg
	m.flashIsErr = true
}

func (m *Model) setNotice(msg string) {
	m.flash = msg
	m.flashIsErr = false
}

// describeError turns a sync or action failure into a status line.
func describeError(op string, err error) string {
	var (
		rejected *gssync.RejectedError
		partial  *gssync.PartialTransitionError
		invalid  *source.ValidationError
	)
	switch {
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.As(err, &partial):
		if partial.Reverted {
			return "order update failed, task status restored"
		}
		return "order update failed and the task could not be restored; refresh to check"
	case source.IsAuthError(err):
		return "session expired, run 'greenspace login'"
	case errors.As(err, &invalid):
		if len(invalid.Messages) == 0 {
			return fmt.Sprintf("%s rejected by server (%d)", op, invalid.StatusCode)
		}
		return fmt.Sprintf("%s rejected: %s", op, strings.Join(invalid.Messages, "; "))
	case source.IsNetworkError(err):
		return op + " failed: server unreachable"
	case errors.Is(err, context.Canceled):
		return ""
	default:
		return fmt.Sprintf("%s failed: %v", op, err)
	}
}

func itemName(w model.WorkItem) string {
	if w.Title != "" {
		return w.Title
	}
	return w.ID
}
