package session

import (
	"time"

	"go.uber.org/zap"

	"coldstar/internal/model"
)

// DefaultPageSize is how many transactions a history page holds and how
// many more rows each reveal step uncovers.
const DefaultPageSize = 5

// WalletSession is the single authoritative copy of live wallet state.
// It is not safe for concurrent use: Apply and every accessor run on the
// UI update loop, which is the only goroutine allowed to touch it.
type WalletSession struct {
	Connected bool
	NetInfo   model.NetworkInfo
	HasNet    bool

	Devices           []model.Device
	SelectedDevice    int // index into Devices, -1 when none
	SelectionRequired bool
	Mountpoint        string

	PublicKey       string
	HasBalance      bool
	BalanceLamports uint64
	Tokens          []model.TokenBalance

	// Transactions are newest first. seen maps signature to index so a
	// refresh can merge without duplicating rows.
	Transactions []model.TxRecord
	seen         map[string]int
	// Visible is how many transactions the history view shows; it grows in
	// DefaultPageSize steps via RevealMore.
	Visible int
	// HistoryExhausted is set once an older-page fetch comes back short,
	// meaning the chain has no more history for this wallet.
	HistoryExhausted bool

	// SelectedAsset indexes the asset list shown in the send panel:
	// 0 is native SOL, i>0 is Tokens[i-1].
	SelectedAsset int

	LastSync   time.Time
	USDPerSOL  float64
	LastError  string
	AirdropMsg string

	pageSize int
	log      *zap.Logger
}

// New builds an empty session.
func New(pageSize int, log *zap.Logger) *WalletSession {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WalletSession{
		SelectedDevice: -1,
		seen:           map[string]int{},
		pageSize:       pageSize,
		log:            log.Named("session"),
	}
}

// Apply folds one event into the session. It is the only mutation path.
func (s *WalletSession) Apply(evt Event) {
	switch e := evt.(type) {
	case ConnectivityChanged:
		s.Connected = e.Connected

	case NetworkInfoUpdated:
		s.NetInfo = e.Info
		s.HasNet = true

	case DevicesDiscovered:
		s.Devices = e.Devices
		s.SelectedDevice = e.Selected
		s.SelectionRequired = e.SelectionRequired
		if e.Selected < 0 {
			s.clearDeviceState()
		}

	case DeviceMounted:
		s.Mountpoint = e.Mountpoint

	case DeviceCleared:
		s.clearDeviceState()

	case PublicKeyRead:
		if e.Key != s.PublicKey {
			s.resetWalletState()
			s.PublicKey = e.Key
		}

	case BalanceUpdated:
		s.BalanceLamports = e.Lamports
		s.HasBalance = true

	case TokensUpdated:
		s.Tokens = e.Tokens
		s.clampAssetSelection()

	case TransactionsLoaded:
		if e.Append {
			s.appendHistory(e.Records)
		} else {
			s.mergeHistory(e.Records)
		}

	case TransactionEnriched:
		if idx, ok := s.seen[e.Record.Signature]; ok {
			s.Transactions[idx] = e.Record
		}

	case StageFailed:
		s.LastError = string(e.Stage) + ": " + e.Err.Error()
		s.log.Warn("refresh stage failed", zap.String("stage", string(e.Stage)), zap.Error(e.Err))

	case SyncCompleted:
		s.LastSync = e.At
		s.LastError = ""

	case RateUpdated:
		s.USDPerSOL = e.USDPerSOL

	case AirdropFinished:
		switch {
		case e.Err != nil:
			s.AirdropMsg = "airdrop failed: " + e.Err.Error()
		case e.Confirmed:
			s.AirdropMsg = "airdrop confirmed: " + e.Signature
		default:
			s.AirdropMsg = "airdrop sent, not yet confirmed: " + e.Signature
		}
	}
}

// mergeHistory folds the newest page into existing history. Records already
// known keep their enriched form and position; unseen ones are newer than
// everything held and go in front, widening the visible window so nothing
// the user had revealed scrolls away.
func (s *WalletSession) mergeHistory(records []model.TxRecord) {
	var fresh []model.TxRecord
	for _, r := range records {
		if idx, ok := s.seen[r.Signature]; ok {
			// Keep enrichment already resolved for this signature.
			if s.Transactions[idx].Direction != model.DirectionUnknown {
				continue
			}
			s.Transactions[idx] = r
			continue
		}
		fresh = append(fresh, r)
	}
	if len(fresh) > 0 {
		s.Transactions = append(fresh, s.Transactions...)
		s.Visible += len(fresh)
	}
	if s.Visible == 0 || s.Visible > len(s.Transactions) {
		s.Visible = min(s.pageSize, len(s.Transactions))
	}
	s.reindex()
}

func (s *WalletSession) appendHistory(records []model.TxRecord) {
	if len(records) < s.pageSize {
		s.HistoryExhausted = true
	}
	for _, r := range records {
		if _, ok := s.seen[r.Signature]; ok {
			continue
		}
		s.seen[r.Signature] = len(s.Transactions)
		s.Transactions = append(s.Transactions, r)
	}
	// The page was requested by a reveal, so show it.
	s.Visible = len(s.Transactions)
}

func (s *WalletSession) reindex() {
	s.seen = make(map[string]int, len(s.Transactions))
	for i, r := range s.Transactions {
		s.seen[r.Signature] = i
	}
}

// SelectAsset moves the send-panel asset selection, clamped to the asset
// list. Index 0 is SOL.
func (s *WalletSession) SelectAsset(index int) {
	s.SelectedAsset = index
	s.clampAssetSelection()
}

func (s *WalletSession) clampAssetSelection() {
	if s.SelectedAsset < 0 {
		s.SelectedAsset = 0
	}
	if s.SelectedAsset > len(s.Tokens) {
		s.SelectedAsset = len(s.Tokens)
	}
}

// SelectedToken returns the selected SPL token, or false when native SOL
// is selected.
func (s *WalletSession) SelectedToken() (model.TokenBalance, bool) {
	if s.SelectedAsset == 0 || s.SelectedAsset > len(s.Tokens) {
		return model.TokenBalance{}, false
	}
	return s.Tokens[s.SelectedAsset-1], true
}

// VisibleTransactions returns the slice of history currently revealed.
func (s *WalletSession) VisibleTransactions() []model.TxRecord {
	n := min(s.Visible, len(s.Transactions))
	return s.Transactions[:n]
}

// clearDeviceState drops everything derived from the mounted device.
func (s *WalletSession) clearDeviceState() {
	s.Mountpoint = ""
	s.resetWalletState()
	s.PublicKey = ""
}

// resetWalletState drops balance, tokens and history, keeping device and
// network facts.
func (s *WalletSession) resetWalletState() {
	s.HasBalance = false
	s.BalanceLamports = 0
	s.Tokens = nil
	s.Transactions = nil
	s.seen = map[string]int{}
	s.Visible = 0
	s.HistoryExhausted = false
	s.SelectedAsset = 0
}
