package domain

// UpkeepStatus is the outcome of a draw eligibility check together with the
// state it was computed on.
type UpkeepStatus struct {
	UpkeepNeeded      bool
	IsOpen            bool
	TimePassed        bool
	HasBalance        bool
	HasParticipants   bool
	Balance           uint64
	NumOfParticipants int
	Phase             RafflePhase
}

// CheckUpkeep reports whether a draw may start at the given unix time.
// It never mutates the round.
func (r *Round) CheckUpkeep(now int64) UpkeepStatus {
	status := UpkeepStatus{
		IsOpen:            r.IsOpen(),
		TimePassed:        r.IntervalElapsed(now),
		HasBalance:        r.Entries.Balance > 0,
		HasParticipants:   r.Entries.Len() > 0,
		Balance:           r.Entries.Balance,
		NumOfParticipants: r.Entries.Len(),
		Phase:             r.Stage.Code,
	}
	status.UpkeepNeeded = status.IsOpen && status.TimePassed &&
		status.HasBalance && status.HasParticipants
	return status
}

func (s UpkeepStatus) Err() error {
	if s.UpkeepNeeded {
		return nil
	}
	return UpkeepNotNeededError{
		Balance:           s.Balance,
		NumOfParticipants: s.NumOfParticipants,
		Phase:             s.Phase,
	}
}
