// Package tui renders the wallet console. The bubbletea update loop is the
// only place session and flow state mutates; background workers talk to it
// exclusively through the event channel.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"coldstar/internal/device"
	"coldstar/internal/session"
)

type focusArea int

const (
	focusHistory focusArea = iota
	focusSend
	focusDevices
	focusAreas // count
)

type sendField int

const (
	fieldRecipient sendField = iota
	fieldAmount
)

// eventMsg wraps a worker event for the update loop.
type eventMsg struct{ evt session.Event }

// App is the root bubbletea model.
type App struct {
	ctx     context.Context
	session *session.WalletSession
	flow    *session.SendFlow
	poller  *session.Poller
	tracker *device.Tracker
	events  chan session.Event
	rpcURL  string
	log     *zap.Logger

	focus        focusArea
	field        sendField
	toInput      textinput.Model
	amountInput  textinput.Model
	passInput    textinput.Model
	deviceCursor int
	historyIdx   int
	showReceive  bool
	status       string
	width        int
	height       int
}

func NewApp(
	ctx context.Context,
	sess *session.WalletSession,
	flow *session.SendFlow,
	poller *session.Poller,
	tracker *device.Tracker,
	events chan session.Event,
	rpcURL string,
	log *zap.Logger,
) App {
	if log == nil {
		log = zap.NewNop()
	}

	to := textinput.New()
	to.Placeholder = "recipient address"
	to.CharLimit = 64

	amount := textinput.New()
	amount.Placeholder = "amount in SOL"
	amount.CharLimit = 20

	pass := textinput.New()
	pass.Placeholder = "passphrase"
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '•'

	return App{
		ctx:         ctx,
		session:     sess,
		flow:        flow,
		poller:      poller,
		tracker:     tracker,
		events:      events,
		rpcURL:      rpcURL,
		log:         log.Named("tui"),
		toInput:     to,
		amountInput: amount,
		passInput:   pass,
	}
}

// listen hands the next worker event to the update loop, then re-arms.
func (a App) listen() tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-a.events
		if !ok {
			return nil
		}
		return eventMsg{evt: evt}
	}
}

func (a App) Init() tea.Cmd {
	return a.listen()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return a.handleEvent(msg.evt)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleEvent(evt session.Event) (tea.Model, tea.Cmd) {
	a.session.Apply(evt)
	a.flow.Apply(evt)

	switch e := evt.(type) {
	case session.SendFinished:
		a.passInput.Reset()
		a.passInput.Blur()
		if e.Err != nil {
			a.status = errStyle.Render("send failed: " + e.Err.Error())
		} else {
			a.status = okStyle.Render("sent " + e.Signature)
		}
	case session.StageFailed:
		a.status = warnStyle.Render(string(e.Stage) + ": " + e.Err.Error())
	case session.SyncCompleted:
		a.status = ""
	case session.AirdropFinished:
		a.status = mutedStyle.Render(a.session.AirdropMsg)
	case session.TransactionsLoaded:
		a.clampHistoryCursor()
	case session.DeviceCleared:
		a.historyIdx = 0
	}
	return a, a.listen()
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Text entry captures everything except navigation out.
	if a.focus == focusSend && a.typing() {
		return a.handleSendKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "tab":
		a.focus = (a.focus + 1) % focusAreas
		a.syncInputFocus()
		return a, nil
	case "r":
		a.poller.Refresh()
		a.status = mutedStyle.Render("refreshing")
		return a, nil
	case "u":
		return a.unmount()
	case "g":
		a.showReceive = !a.showReceive
		return a, nil
	case "f":
		return a.airdrop()
	case "left", "[":
		a.session.SelectAsset(a.session.SelectedAsset - 1)
		return a, nil
	case "right", "]":
		a.session.SelectAsset(a.session.SelectedAsset + 1)
		return a, nil
	case "esc":
		a.showReceive = false
		return a, nil
	}

	switch a.focus {
	case focusHistory:
		return a.handleHistoryKey(msg)
	case focusDevices:
		return a.handleDeviceKey(msg)
	case focusSend:
		return a.handleSendKey(msg)
	}
	return a, nil
}

func (a App) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.historyIdx > 0 {
			a.historyIdx--
		}
	case "down", "j":
		if a.historyIdx < len(a.session.VisibleTransactions())-1 {
			a.historyIdx++
			return a, nil
		}
		// Advancing past the window edge uncovers the next page.
		return a.revealMore(true)
	case "v", "enter":
		return a.revealMore(false)
	}
	return a, nil
}

// revealMore widens the history window, fetching an older page when the
// cache is spent. advance moves the cursor onto newly revealed rows.
func (a App) revealMore(advance bool) (tea.Model, tea.Cmd) {
	cursor, fetch := a.session.RevealMore()
	if fetch {
		pubkey := a.session.PublicKey
		go a.poller.LoadOlder(a.ctx, pubkey, cursor)
		a.status = mutedStyle.Render("loading older transactions")
		return a, nil
	}
	if advance {
		if n := len(a.session.VisibleTransactions()); a.historyIdx < n-1 {
			a.historyIdx++
		}
	}
	return a, nil
}

func (a App) handleDeviceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.deviceCursor > 0 {
			a.deviceCursor--
		}
	case "down", "j":
		if a.deviceCursor < len(a.session.Devices)-1 {
			a.deviceCursor++
		}
	case "enter":
		changed, err := a.tracker.Select(a.deviceCursor)
		if err != nil {
			a.status = errStyle.Render(err.Error())
			return a, nil
		}
		if changed {
			// Everything read from the old device is stale now.
			a.session.Apply(session.DeviceCleared{})
			a.poller.Refresh()
		}
	}
	return a, nil
}

func (a App) handleSendKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.flow.State {
	case session.StateDraft:
		return a.handleDraftKey(msg)
	case session.StateConfirming:
		return a.handleConfirmKey(msg)
	case session.StateResult:
		if msg.String() == "enter" || msg.String() == "esc" {
			a.flow.Clear()
			a.toInput.Reset()
			a.amountInput.Reset()
			a.field = fieldRecipient
			a.syncInputFocus()
		}
	}
	// Signing and broadcasting ignore input.
	return a, nil
}

func (a App) handleDraftKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		a.focus = (a.focus + 1) % focusAreas
		a.syncInputFocus()
		return a, nil
	case "ctrl+c":
		return a, tea.Quit
	case "enter":
		if a.field == fieldRecipient {
			a.field = fieldAmount
			a.syncInputFocus()
			return a, nil
		}
		a.flow.SetRecipient(a.toInput.Value())
		a.flow.SetAmount(a.amountInput.Value())
		if err := a.flow.BeginConfirm(); err != nil {
			a.status = errStyle.Render(err.Error())
			return a, nil
		}
		a.status = ""
		a.passInput.Focus()
		return a, nil
	case "esc":
		a.flow.Clear()
		a.toInput.Reset()
		a.amountInput.Reset()
		a.field = fieldRecipient
		a.syncInputFocus()
		return a, nil
	}

	var cmd tea.Cmd
	if a.field == fieldRecipient {
		a.toInput, cmd = a.toInput.Update(msg)
	} else {
		a.amountInput, cmd = a.amountInput.Update(msg)
	}
	// Keep the draft current so the review line tracks every edit.
	a.flow.SetRecipient(a.toInput.Value())
	a.flow.SetAmount(a.amountInput.Value())
	return a, cmd
}

func (a App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.flow.Back()
		a.passInput.Reset()
		a.passInput.Blur()
		a.syncInputFocus()
		return a, nil
	case "ctrl+c":
		return a, tea.Quit
	case "enter":
		passphrase := []byte(a.passInput.Value())
		a.passInput.Reset()
		if err := a.flow.Confirm(a.ctx, passphrase); err != nil {
			a.status = errStyle.Render(err.Error())
			return a, nil
		}
		a.status = mutedStyle.Render("signing")
		return a, nil
	}

	var cmd tea.Cmd
	a.passInput, cmd = a.passInput.Update(msg)
	return a, cmd
}

func (a App) unmount() (tea.Model, tea.Cmd) {
	if err := a.tracker.Unmount(); err != nil {
		a.status = errStyle.Render(err.Error())
		return a, nil
	}
	a.session.Apply(session.DeviceCleared{})
	a.historyIdx = 0
	a.status = mutedStyle.Render("device unmounted")
	return a, nil
}

func (a App) airdrop() (tea.Model, tea.Cmd) {
	pubkey := a.session.PublicKey
	if pubkey == "" {
		a.status = warnStyle.Render("no wallet loaded")
		return a, nil
	}
	go a.poller.Airdrop(a.ctx, pubkey, 1_000_000_000)
	a.status = mutedStyle.Render("requesting airdrop")
	return a, nil
}

// typing reports whether a text input currently owns the keyboard.
func (a App) typing() bool {
	switch a.flow.State {
	case session.StateDraft:
		return a.toInput.Focused() || a.amountInput.Focused()
	case session.StateConfirming:
		return a.passInput.Focused()
	}
	return false
}

// syncInputFocus keeps exactly one text input focused, tracking panel and
// field selection.
func (a *App) syncInputFocus() {
	a.toInput.Blur()
	a.amountInput.Blur()
	if a.focus != focusSend || a.flow.State != session.StateDraft {
		return
	}
	if a.field == fieldRecipient {
		a.toInput.Focus()
	} else {
		a.amountInput.Focus()
	}
}

func (a *App) clampHistoryCursor() {
	if n := len(a.session.VisibleTransactions()); a.historyIdx >= n {
		a.historyIdx = max(0, n-1)
	}
}

func formatAge(t *time.Time) string {
	if t == nil {
		return "pending"
	}
	d := time.Since(*t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return d.Round(time.Minute).String() + " ago"
	case d < 24*time.Hour:
		return d.Round(time.Hour).String() + " ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}
