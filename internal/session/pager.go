package session

// RevealMore uncovers another page of history. Cached records are revealed
// first; only when the cache is exhausted does it ask for a fetch, handing
// back the oldest known signature as the cursor. fetch is false when no
// network round trip is needed or when the chain end was already reached.
func (s *WalletSession) RevealMore() (cursor string, fetch bool) {
	if s.Visible < len(s.Transactions) {
		s.Visible = min(s.Visible+s.pageSize, len(s.Transactions))
		return "", false
	}
	if s.HistoryExhausted || len(s.Transactions) == 0 {
		return "", false
	}
	return s.Transactions[len(s.Transactions)-1].Signature, true
}
