package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coldstar/internal/model"
)

func loaded(sigs ...string) TransactionsLoaded {
	records := make([]model.TxRecord, 0, len(sigs))
	for _, s := range sigs {
		records = append(records, record(s))
	}
	return TransactionsLoaded{Records: records}
}

func TestRevealMoreUsesCacheFirst(t *testing.T) {
	s := New(2, nil)
	// Six cached records but only two revealed: a refresh merge piled
	// newer rows on top of an already-appended page.
	s.Apply(loaded("s6", "s5"))
	evt := loaded("s4", "s3", "s2", "s1")
	evt.Append = true
	s.Apply(evt)
	s.Visible = 2

	cursor, fetch := s.RevealMore()
	assert.False(t, fetch, "cache serves the next page")
	assert.Empty(t, cursor)
	assert.Equal(t, 4, s.Visible)

	_, fetch = s.RevealMore()
	assert.False(t, fetch)
	assert.Equal(t, 6, s.Visible)
}

func TestRevealMoreRequestsFetchWhenCacheExhausted(t *testing.T) {
	s := New(2, nil)
	s.Apply(loaded("s4", "s3"))

	cursor, fetch := s.RevealMore()
	require.True(t, fetch)
	assert.Equal(t, "s3", cursor, "cursor is the oldest known signature")
}

func TestRevealMoreAfterChainEnd(t *testing.T) {
	s := New(2, nil)
	s.Apply(loaded("s2", "s1"))

	// Older page comes back short: end of history.
	short := TransactionsLoaded{Records: []model.TxRecord{record("s0")}, Append: true}
	s.Apply(short)
	require.True(t, s.HistoryExhausted)

	_, fetch := s.RevealMore()
	assert.False(t, fetch, "no fetch once the chain end is known")
}

func TestRevealMoreEmptyHistory(t *testing.T) {
	s := New(2, nil)
	_, fetch := s.RevealMore()
	assert.False(t, fetch)
}

func TestAppendedPageNeverDuplicates(t *testing.T) {
	s := New(2, nil)
	s.Apply(loaded("s3", "s2"))

	// Overlapping older page, as happens when a new transaction shifted
	// pagination between requests.
	overlap := TransactionsLoaded{Records: []model.TxRecord{record("s2"), record("s1")}, Append: true}
	s.Apply(overlap)

	require.Len(t, s.Transactions, 3)
	seen := map[string]bool{}
	for _, r := range s.Transactions {
		assert.False(t, seen[r.Signature], "duplicate %s", r.Signature)
		seen[r.Signature] = true
	}
}
