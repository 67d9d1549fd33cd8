package domain

import (
	"fmt"
	"math/big"
)

// Payout tracks the transfer of a round pool to its winner. It is created
// when a fulfillment selects a winner and survives failed transfers so
// that the same selection can be retried.
type Payout struct {
	RoundId      string
	RequestId    string
	RandomValue  string
	WinnerIndex  int
	Winner       string
	NumOfEntries int
	Amount       uint64
	Attempts     int
	LastError    string
	Txid         string
	Settled      bool
	CreatedAt    int64
	UpdatedAt    int64
}

func NewPayout(roundId string, selection WinnerSelection, timestamp int64) *Payout {
	return &Payout{
		RoundId:      roundId,
		RequestId:    selection.RequestId,
		RandomValue:  selection.RandomValue.String(),
		WinnerIndex:  selection.WinnerIndex,
		Winner:       selection.Winner,
		NumOfEntries: selection.NumOfEntries,
		Amount:       selection.Amount,
		CreatedAt:    timestamp,
		UpdatedAt:    timestamp,
	}
}

func (p *Payout) Selection() (*WinnerSelection, error) {
	randomValue, ok := new(big.Int).SetString(p.RandomValue, 10)
	if !ok {
		return nil, fmt.Errorf("invalid random value %s for payout of round %s", p.RandomValue, p.RoundId)
	}
	return &WinnerSelection{
		RequestId:    p.RequestId,
		RandomValue:  randomValue,
		WinnerIndex:  p.WinnerIndex,
		Winner:       p.Winner,
		NumOfEntries: p.NumOfEntries,
		Amount:       p.Amount,
	}, nil
}

func (p *Payout) Fail(err error, timestamp int64) {
	p.Attempts++
	p.LastError = err.Error()
	p.UpdatedAt = timestamp
}

func (p *Payout) Settle(txid string, timestamp int64) {
	p.Attempts++
	p.LastError = ""
	p.Txid = txid
	p.Settled = true
	p.UpdatedAt = timestamp
}

func (p *Payout) IsPending() bool {
	return !p.Settled
}
