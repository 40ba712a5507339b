package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	qrcode "github.com/skip2/go-qrcode"

	"coldstar/internal/common"
	"coldstar/internal/config"
	"coldstar/internal/model"
	"coldstar/internal/session"
)

func (a App) View() string {
	if a.showReceive {
		return a.receiveView()
	}

	var b strings.Builder
	b.WriteString(a.headerView())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		a.devicesView(),
		a.portfolioView(),
	))
	b.WriteString("\n")
	b.WriteString(a.historyView())
	b.WriteString("\n")
	b.WriteString(a.sendView())
	b.WriteString("\n")
	if a.status != "" {
		b.WriteString(a.status)
		b.WriteString("\n")
	}
	b.WriteString(a.footerView())
	return b.String()
}

func (a App) headerView() string {
	s := a.session

	conn := errStyle.Render("● offline")
	if s.Connected {
		conn = okStyle.Render("● " + config.ClusterOf(a.rpcURL))
	}

	parts := []string{titleStyle.Render("coldstar"), conn}
	if s.HasNet {
		parts = append(parts,
			labelStyle.Render("v")+valueStyle.Render(s.NetInfo.Version),
			labelStyle.Render("slot ")+valueStyle.Render(fmt.Sprintf("%d", s.NetInfo.Slot)),
			labelStyle.Render("epoch ")+valueStyle.Render(fmt.Sprintf("%d", s.NetInfo.Epoch)),
		)
	}
	if !s.LastSync.IsZero() {
		parts = append(parts, mutedStyle.Render("synced "+s.LastSync.Format("15:04:05")))
	}
	return strings.Join(parts, "  ")
}

func (a App) devicesView() string {
	s := a.session
	var b strings.Builder
	b.WriteString(titleStyle.Render("Devices"))
	b.WriteString("\n")

	if len(s.Devices) == 0 {
		b.WriteString(mutedStyle.Render("no removable device"))
	}
	for i, d := range s.Devices {
		prefix := "  "
		if a.focus == focusDevices && i == a.deviceCursor {
			prefix = cursorStyle.Render("> ")
		}
		line := d.ID
		if d.Label != "" {
			line += " " + d.Label
		}
		if d.Size != "" {
			line += mutedStyle.Render(" " + d.Size)
		}
		if i == s.SelectedDevice {
			line += okStyle.Render(" ✓")
		}
		b.WriteString(prefix + line + "\n")
	}
	if s.SelectionRequired {
		b.WriteString(warnStyle.Render("select a device"))
		b.WriteString("\n")
	}
	if s.Mountpoint != "" {
		b.WriteString(labelStyle.Render("mounted ") + valueStyle.Render(s.Mountpoint))
	}
	return a.panel(focusDevices).Render(b.String())
}

func (a App) portfolioView() string {
	s := a.session
	var b strings.Builder
	b.WriteString(titleStyle.Render("Portfolio"))
	b.WriteString("\n")

	if s.PublicKey == "" {
		b.WriteString(mutedStyle.Render("no wallet loaded"))
		return a.panel(focusAreas).Render(b.String())
	}

	b.WriteString(labelStyle.Render("address ") + valueStyle.Render(common.ShortenKey(s.PublicKey)))
	b.WriteString("\n")
	if s.HasBalance {
		line := accentStyle.Render(common.LamportsToSOL(s.BalanceLamports) + " SOL")
		if s.USDPerSOL > 0 {
			usd := float64(s.BalanceLamports) / float64(common.LamportsPerSOL) * s.USDPerSOL
			line += mutedStyle.Render(fmt.Sprintf("  ≈ $%.2f", usd))
		}
		b.WriteString(line)
		b.WriteString("\n")
	} else {
		b.WriteString(mutedStyle.Render("balance pending"))
		b.WriteString("\n")
	}

	for i, tok := range s.Tokens {
		prefix := "  "
		if s.SelectedAsset == i+1 {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + fmt.Sprintf("%s %s\n",
			valueStyle.Render(fmt.Sprintf("%14.6f", tok.UIAmount)),
			labelStyle.Render(tok.Symbol)))
	}

	// Detail line for the selected asset
	if tok, ok := s.SelectedToken(); ok {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("mint %s · %d decimals", common.ShortenKey(tok.Mint), tok.Decimals)))
	} else if s.HasBalance {
		b.WriteString(mutedStyle.Render("native SOL selected"))
	}
	return a.panel(focusAreas).Render(b.String())
}

func (a App) historyView() string {
	s := a.session
	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	b.WriteString("\n")

	visible := s.VisibleTransactions()
	if len(visible) == 0 {
		b.WriteString(mutedStyle.Render("no transactions"))
	}
	for i, tx := range visible {
		prefix := "  "
		if a.focus == focusHistory && i == a.historyIdx {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + a.historyLine(tx) + "\n")
	}

	switch {
	case s.HistoryExhausted && len(visible) == len(s.Transactions):
		b.WriteString(mutedStyle.Render("end of history"))
	case len(visible) > 0:
		b.WriteString(mutedStyle.Render("v more"))
	}

	if a.focus == focusHistory && a.historyIdx < len(visible) {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(config.ExplorerTxURL(a.rpcURL, visible[a.historyIdx].Signature)))
	}
	return a.panel(focusHistory).Render(b.String())
}

func (a App) historyLine(tx model.TxRecord) string {
	var dir, amount string
	switch tx.Direction {
	case model.DirectionSent:
		dir = sentStyle.Render("sent")
	case model.DirectionReceived:
		dir = recvStyle.Render("recv")
	case model.DirectionOther:
		dir = mutedStyle.Render("othr")
	default:
		dir = mutedStyle.Render("....")
	}
	if tx.DeltaLamports != nil {
		amount = common.SignedLamportsToSOL(*tx.DeltaLamports) + " SOL"
	} else {
		amount = mutedStyle.Render("—")
	}

	line := fmt.Sprintf("%s  %s  %s  %s",
		valueStyle.Render(common.ShortenKey(tx.Signature)),
		dir, amount, mutedStyle.Render(formatAge(tx.BlockTime)))
	if tx.Failed {
		line += " " + errStyle.Render("failed")
	}
	return line
}

func (a App) sendView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Send"))
	b.WriteString("\n")

	switch a.flow.State {
	case session.StateDraft:
		b.WriteString(labelStyle.Render("to     ") + a.toInput.View() + "\n")
		b.WriteString(labelStyle.Render("amount ") + a.amountInput.View())
		if review := a.flow.Review(); review != "" {
			b.WriteString("\n" + labelStyle.Render("review ") + valueStyle.Render(review))
		}
		if a.flow.Failure != "" {
			b.WriteString("\n" + errStyle.Render(a.flow.Failure))
		}

	case session.StateConfirming:
		b.WriteString(warnStyle.Render("confirm: ") + valueStyle.Render(a.flow.Review()))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("passphrase ") + a.passInput.View())
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("enter sign · esc back"))

	case session.StateSigning:
		b.WriteString(accentStyle.Render("signing on device..."))

	case session.StateBroadcasting:
		b.WriteString(accentStyle.Render("broadcasting..."))

	case session.StateResult:
		b.WriteString(okStyle.Render("confirmed ") + valueStyle.Render(common.ShortenKey(a.flow.ResultSig)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(config.ExplorerTxURL(a.rpcURL, a.flow.ResultSig)))
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("enter to dismiss"))
	}
	return a.panel(focusSend).Render(b.String())
}

func (a App) receiveView() string {
	s := a.session
	var b strings.Builder
	b.WriteString(titleStyle.Render("Receive"))
	b.WriteString("\n\n")

	if s.PublicKey == "" {
		b.WriteString(mutedStyle.Render("no wallet loaded"))
	} else {
		qr, err := qrcode.New("solana:"+s.PublicKey, qrcode.Medium)
		if err == nil {
			b.WriteString(qr.ToSmallString(false))
		}
		b.WriteString("\n")
		b.WriteString(valueStyle.Render(s.PublicKey))
	}
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("g/esc back"))
	return b.String()
}

func (a App) footerView() string {
	return footerStyle.Render("tab panel · [/] asset · r refresh · v more · g receive · f airdrop · u unmount · q quit")
}

// panel picks the border style for an area, highlighted when focused.
func (a App) panel(area focusArea) lipgloss.Style {
	if a.focus == area {
		return focusedPanel
	}
	return panelStyle
}
