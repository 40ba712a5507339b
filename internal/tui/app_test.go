package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstar/internal/device"
	"coldstar/internal/model"
	"coldstar/internal/session"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func newTestApp(t *testing.T) (App, *session.WalletSession) {
	t.Helper()
	sess := session.New(5, nil)
	events := make(chan session.Event, 8)
	flow := session.NewSendFlow(
		func() (string, uint64, bool) { return "", 0, false },
		func() string { return "" },
		nil, events, nil, 5_000, nil,
	)
	tracker := device.NewTracker(staticLister{}, nopMounter{}, time.Second, nil)
	app := NewApp(context.Background(), sess, flow, nil, tracker, events, "https://api.devnet.solana.com", nil)
	return app, sess
}

type staticLister struct{}

func (staticLister) List() ([]model.Device, error) { return nil, nil }

type nopMounter struct{}

func (nopMounter) Mount(string) (string, error) { return "", nil }
func (nopMounter) Unmount(string) error         { return nil }

func TestEventApplicationRearmsListener(t *testing.T) {
	app, sess := newTestApp(t)

	m, cmd := app.Update(eventMsg{evt: session.BalanceUpdated{Lamports: 123}})
	require.NotNil(t, cmd, "listener must re-arm after every event")
	assert.True(t, sess.HasBalance)
	assert.Equal(t, uint64(123), sess.BalanceLamports)

	_, ok := m.(App)
	assert.True(t, ok)
}

func TestStageFailureSurfacesInStatus(t *testing.T) {
	app, _ := newTestApp(t)

	m, _ := app.Update(eventMsg{evt: session.StageFailed{Stage: session.StageBalance, Err: model.ErrConnectivity}})
	got := m.(App)
	assert.Contains(t, got.status, "balance")
}

func TestQuitKey(t *testing.T) {
	app, _ := newTestApp(t)
	_, cmd := app.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTabCyclesFocus(t *testing.T) {
	app, _ := newTestApp(t)
	assert.Equal(t, focusHistory, app.focus)

	m, _ := app.Update(key("tab"))
	got := m.(App)
	assert.Equal(t, focusSend, got.focus)

	m, _ = got.Update(key("tab"))
	got = m.(App)
	assert.Equal(t, focusDevices, got.focus)

	m, _ = got.Update(key("tab"))
	got = m.(App)
	assert.Equal(t, focusHistory, got.focus)
}

func TestDownPastWindowEdgeRevealsMore(t *testing.T) {
	app, sess := newTestApp(t)
	sess.Apply(session.TransactionsLoaded{Records: []model.TxRecord{
		{Signature: "s4"}, {Signature: "s3"}, {Signature: "s2"}, {Signature: "s1"},
	}})
	sess.Visible = 2

	m, _ := app.Update(key("down"))
	got := m.(App)
	assert.Equal(t, 1, got.historyIdx)
	assert.Equal(t, 2, sess.Visible)

	// Already on the last visible row: the next step widens the window
	// from the cache and moves onto the first revealed row.
	m, _ = got.Update(key("down"))
	got = m.(App)
	assert.Equal(t, 4, sess.Visible)
	assert.Equal(t, 2, got.historyIdx)
}

func TestReceiveToggle(t *testing.T) {
	app, sess := newTestApp(t)
	sess.Apply(session.PublicKeyRead{Key: "11111111111111111111111111111111"})

	m, _ := app.Update(key("g"))
	got := m.(App)
	assert.True(t, got.showReceive)
	assert.Contains(t, got.View(), "11111111111111111111111111111111")

	m, _ = got.Update(key("esc"))
	got = m.(App)
	assert.False(t, got.showReceive)
}

func TestViewRendersWithoutWallet(t *testing.T) {
	app, _ := newTestApp(t)
	out := app.View()
	assert.Contains(t, out, "no removable device")
	assert.Contains(t, out, "no wallet loaded")
	assert.Contains(t, out, "offline")
}
