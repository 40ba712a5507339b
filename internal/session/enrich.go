package session

import (
	"fmt"

	"go.uber.org/zap"

	"coldstar/internal/model"
)

// DetailFetcher resolves full transaction detail for one signature.
type DetailFetcher interface {
	TransactionDetail(signature string) (*model.RawTxDetail, error)
}

// Enricher resolves direction and lamport amounts for summary-only
// transaction records.
type Enricher struct {
	detail DetailFetcher
	log    *zap.Logger
}

func NewEnricher(detail DetailFetcher, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{detail: detail, log: log.Named("enrich")}
}

// EnrichBatch resolves each record in turn, invoking emit per finished
// record. A record whose detail fetch fails stays unknown and does not stop
// the rest of the batch.
func (e *Enricher) EnrichBatch(owner string, records []model.TxRecord, emit func(model.TxRecord)) {
	for _, r := range records {
		if r.Direction != model.DirectionUnknown {
			continue
		}
		detail, err := e.detail.TransactionDetail(r.Signature)
		if err != nil {
			e.log.Debug("detail fetch failed",
				zap.String("signature", r.Signature),
				zap.Error(fmt.Errorf("%w: %v", model.ErrEnrichment, err)))
			continue
		}
		emit(classify(owner, r, detail))
	}
}

// classify derives direction and amounts from account balance movements.
// The wallet's net lamport movement decides direction; when the wallet is
// the fee payer (first account) the fee is backed out so the amount shown
// is the transfer itself.
func classify(owner string, record model.TxRecord, detail *model.RawTxDetail) model.TxRecord {
	idx := -1
	for i, key := range detail.AccountKeys {
		if key == owner {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(detail.PreBalances) || idx >= len(detail.PostBalances) {
		// Wallet not among the accounts; leave the record unresolved.
		return record
	}

	delta := int64(detail.PostBalances[idx]) - int64(detail.PreBalances[idx])
	fee := detail.FeeLamports

	switch {
	case idx == 0 && delta < 0:
		amount := delta + int64(fee)
		record.Direction = model.DirectionSent
		record.DeltaLamports = &amount
		record.FeeLamports = &fee
	case delta > 0:
		record.Direction = model.DirectionReceived
		record.DeltaLamports = &delta
		record.FeeLamports = &fee
	default:
		record.Direction = model.DirectionOther
		record.DeltaLamports = &delta
		record.FeeLamports = &fee
	}
	return record
}
