package domain

// Clone returns a deep copy of the round with no pending changes.
func (r *Round) Clone() *Round {
	round := *r
	round.Entries.Participants = append([]string{}, r.Entries.Participants...)
	round.changes = make([]RoundEvent, 0)
	return &round
}
