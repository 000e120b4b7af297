package chain

// MapCoinView is a straightforward map-backed CoinView implementation,
// grounded on the shape of the teacher's blockchain.UtxoViewpoint but
// trimmed to exactly the CoinView contract spec §6 names. The mempool
// constructs one of these per admission attempt and discards it once the
// transaction is tracked or rejected.
type MapCoinView struct {
	entries map[Outpoint]*Coin
}

// NewMapCoinView returns an empty view.
func NewMapCoinView() *MapCoinView {
	return &MapCoinView{entries: make(map[Outpoint]*Coin)}
}

// HasEntry reports whether op has already been resolved in this view.
func (v *MapCoinView) HasEntry(op Outpoint) bool {
	_, ok := v.entries[op]
	return ok
}

// Entry returns the coin resolved for op, or nil if unresolved.
func (v *MapCoinView) Entry(op Outpoint) *Coin {
	return v.entries[op]
}

// AddCoin records a resolved coin in the view.
func (v *MapCoinView) AddCoin(c *Coin) {
	if c == nil {
		return
	}
	v.entries[c.Outpoint] = c
}

// AddEntry records a resolved coin at op.
func (v *MapCoinView) AddEntry(op Outpoint, c *Coin) {
	if c == nil {
		return
	}
	cp := *c
	cp.Outpoint = op
	v.entries[op] = &cp
}

// AddIndex is a no-op for the plain map view; secondary-index-aware views
// embed this one and override the behavior (see mempool/index).
func (v *MapCoinView) AddIndex(tx *Tx, i int, height int32) {}

// Unresolved returns the outpoints in wants that this view has not resolved,
// used by the admission pipeline's orphan classification step.
func (v *MapCoinView) Unresolved(wants []Outpoint) []Outpoint {
	var missing []Outpoint
	for _, op := range wants {
		if _, ok := v.entries[op]; !ok {
			missing = append(missing, op)
		}
	}
	return missing
}
