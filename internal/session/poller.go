package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"coldstar/internal/model"
	"coldstar/internal/signer"
)

// NetworkClient is the slice of the RPC client the poller needs.
type NetworkClient interface {
	IsConnected() bool
	NetworkInfo() (*model.NetworkInfo, error)
	Balance(address string) (uint64, error)
	TokenBalances(address string) ([]model.TokenBalance, error)
	Signatures(address string, limit int, before string) ([]model.RawTxSummary, error)
	TransactionDetail(signature string) (*model.RawTxDetail, error)
	RequestAirdrop(address string, lamports uint64) (string, error)
	ConfirmTransaction(signature string) bool
}

// DeviceSource is the slice of the device tracker the poller needs.
type DeviceSource interface {
	Discover() ([]model.Device, bool, error)
	SelectedIndex() int
	EnsureMounted() (string, error)
	PubkeyPath() string
}

// RateFetcher supplies the cosmetic SOL/USD rate.
type RateFetcher interface {
	GetSOLtoUSDrate() (float64, error)
}

// MaxAirdropLamports caps a faucet request at 2 SOL, matching what public
// devnet faucets will grant.
const MaxAirdropLamports = 2_000_000_000

// ResyncDelay is how long to wait after a broadcast before resyncing, so
// the transaction has a chance to land first.
const ResyncDelay = 2 * time.Second

const rateInterval = time.Minute

// Poller drives the periodic refresh pipeline. Every cycle walks the same
// ordered stages; a stage failure stops the cycle there, leaving state
// committed by earlier stages in place. At most one cycle runs at a time;
// refresh requests arriving mid-cycle are coalesced.
type Poller struct {
	net      NetworkClient
	devices  DeviceSource
	rate     RateFetcher // nil disables rate lookups
	enricher *Enricher
	events   chan<- Event

	interval time.Duration
	pageSize int
	cluster  string
	log      *zap.Logger

	inFlight atomic.Bool
	kick     chan struct{}
}

func NewPoller(net NetworkClient, devices DeviceSource, rate RateFetcher, events chan<- Event, interval time.Duration, pageSize int, cluster string, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Poller{
		net:      net,
		devices:  devices,
		rate:     rate,
		enricher: NewEnricher(net, log),
		events:   events,
		interval: interval,
		pageSize: pageSize,
		cluster:  cluster,
		log:      log.Named("poller"),
		kick:     make(chan struct{}, 1),
	}
}

// Run blocks until ctx is done, refreshing on the interval and on demand.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	rateTicker := time.NewTicker(rateInterval)
	defer rateTicker.Stop()

	p.fetchRate(ctx)
	p.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx)
		case <-p.kick:
			p.refresh(ctx)
		case <-rateTicker.C:
			p.fetchRate(ctx)
		}
	}
}

// Refresh requests an immediate cycle. Non-blocking; requests landing while
// a cycle is queued or running collapse into one.
func (p *Poller) Refresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// RefreshAfter schedules a refresh once d elapses. Used after a broadcast
// so the new transaction has a chance to land before the resync.
func (p *Poller) RefreshAfter(d time.Duration) {
	time.AfterFunc(d, p.Refresh)
}

func (p *Poller) emit(ctx context.Context, evt Event) bool {
	select {
	case p.events <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}

func (p *Poller) fail(ctx context.Context, stage Stage, err error) {
	p.emit(ctx, StageFailed{Stage: stage, Err: err})
}

// refresh runs one full pipeline pass.
func (p *Poller) refresh(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer p.inFlight.Store(false)

	connected := p.net.IsConnected()
	if !p.emit(ctx, ConnectivityChanged{Connected: connected}) {
		return
	}
	if !connected {
		p.fail(ctx, StageConnectivity, model.ErrConnectivity)
		return
	}

	info, err := p.net.NetworkInfo()
	if err != nil {
		p.fail(ctx, StageNetworkInfo, err)
		return
	}
	p.emit(ctx, NetworkInfoUpdated{Info: *info})

	devices, selectionRequired, err := p.devices.Discover()
	if err != nil {
		p.fail(ctx, StageDevices, err)
		return
	}
	selected := p.devices.SelectedIndex()
	p.emit(ctx, DevicesDiscovered{
		Devices:           devices,
		Selected:          selected,
		SelectionRequired: selectionRequired,
	})
	if selected < 0 {
		// Nothing to sync without a device; not an error.
		p.emit(ctx, SyncCompleted{At: time.Now()})
		return
	}

	mountpoint, err := p.devices.EnsureMounted()
	if err != nil {
		p.fail(ctx, StageMount, err)
		return
	}
	p.emit(ctx, DeviceMounted{Mountpoint: mountpoint})

	pubkey, err := readPubkey(p.devices.PubkeyPath())
	if err != nil {
		p.fail(ctx, StagePublicKey, err)
		return
	}
	p.emit(ctx, PublicKeyRead{Key: pubkey})

	lamports, err := p.net.Balance(pubkey)
	if err != nil {
		p.fail(ctx, StageBalance, err)
		return
	}
	p.emit(ctx, BalanceUpdated{Lamports: lamports})

	tokens, err := p.net.TokenBalances(pubkey)
	if err != nil {
		p.fail(ctx, StageTokens, err)
		return
	}
	p.emit(ctx, TokensUpdated{Tokens: tokens})

	summaries, err := p.net.Signatures(pubkey, p.pageSize, "")
	if err != nil {
		p.fail(ctx, StageHistory, err)
		return
	}
	records := toRecords(summaries)
	p.emit(ctx, TransactionsLoaded{Records: records})

	p.enricher.EnrichBatch(pubkey, records, func(r model.TxRecord) {
		p.emit(ctx, TransactionEnriched{Record: r})
	})

	p.emit(ctx, SyncCompleted{At: time.Now()})
}

// LoadOlder fetches the page of history before cursor and feeds it into the
// session. Runs as its own worker so the UI stays responsive.
func (p *Poller) LoadOlder(ctx context.Context, pubkey, cursor string) {
	summaries, err := p.net.Signatures(pubkey, p.pageSize, cursor)
	if err != nil {
		p.fail(ctx, StageHistory, err)
		return
	}
	records := toRecords(summaries)
	p.emit(ctx, TransactionsLoaded{Records: records, Append: true})

	p.enricher.EnrichBatch(pubkey, records, func(r model.TxRecord) {
		p.emit(ctx, TransactionEnriched{Record: r})
	})
}

// Airdrop requests faucet funds for the wallet. Only meaningful on devnet
// and testnet; amounts above the faucet cap are clamped down to it.
func (p *Poller) Airdrop(ctx context.Context, pubkey string, lamports uint64) {
	if p.cluster != "devnet" && p.cluster != "testnet" {
		p.emit(ctx, AirdropFinished{Err: fmt.Errorf("airdrop is not available on %s", p.cluster)})
		return
	}
	if lamports == 0 {
		p.emit(ctx, AirdropFinished{Err: errors.New("airdrop amount must be positive")})
		return
	}
	if lamports > MaxAirdropLamports {
		lamports = MaxAirdropLamports
	}

	sig, err := p.net.RequestAirdrop(pubkey, lamports)
	if err != nil {
		p.emit(ctx, AirdropFinished{Err: err})
		return
	}

	confirmed := p.net.ConfirmTransaction(sig)
	p.emit(ctx, AirdropFinished{Signature: sig, Confirmed: confirmed})
	p.RefreshAfter(ResyncDelay)
}

func (p *Poller) fetchRate(ctx context.Context) {
	if p.rate == nil {
		return
	}
	rate, err := p.rate.GetSOLtoUSDrate()
	if err != nil {
		p.log.Debug("rate lookup failed", zap.Error(err))
		return
	}
	p.emit(ctx, RateUpdated{USDPerSOL: rate})
}

func readPubkey(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: no mounted device", model.ErrDevice)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read public key: %v", model.ErrDevice, err)
	}
	key := strings.TrimSpace(strings.TrimPrefix(string(raw), "\ufeff"))
	if !signer.ValidateAddress(key) {
		return "", fmt.Errorf("%w: public key file does not hold a valid address", model.ErrDevice)
	}
	return key, nil
}

func toRecords(summaries []model.RawTxSummary) []model.TxRecord {
	records := make([]model.TxRecord, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, model.TxRecord{
			Signature: s.Signature,
			Slot:      s.Slot,
			BlockTime: s.BlockTime,
			Failed:    s.Failed,
			Direction: model.DirectionUnknown,
		})
	}
	return records
}
