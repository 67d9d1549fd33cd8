package domain

// EntryLedger is the ordered list of entries of a round together with the
// pool they funded. The same participant may appear more than once.
type EntryLedger struct {
	Participants []string
	Balance      uint64
}

func (l *EntryLedger) add(participant string, amount uint64) {
	l.Participants = append(l.Participants, participant)
	l.Balance += amount
}

func (l *EntryLedger) reset() {
	l.Participants = make([]string, 0)
	l.Balance = 0
}

func (l EntryLedger) Len() int {
	return len(l.Participants)
}

func (l EntryLedger) At(index int) (string, error) {
	if index < 0 || index >= len(l.Participants) {
		return "", ErrIndexOutOfRange
	}
	return l.Participants[index], nil
}

func (l EntryLedger) List() []string {
	return append([]string{}, l.Participants...)
}
