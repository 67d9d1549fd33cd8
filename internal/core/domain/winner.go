package domain

import (
	"fmt"
	"math/big"
)

// WinnerSelection is the deterministic outcome of a draw, computed before
// any transfer is attempted.
type WinnerSelection struct {
	RequestId    string
	RandomValue  *big.Int
	WinnerIndex  int
	Winner       string
	NumOfEntries int
	Amount       uint64
}

// SelectWinner maps a random value onto the ordered participants list with
// randomValue mod len(participants).
func SelectWinner(randomValue *big.Int, participants []string) (int, string, error) {
	if len(participants) <= 0 {
		return -1, "", fmt.Errorf("no participants to select a winner from")
	}
	if randomValue == nil || randomValue.Sign() < 0 {
		return -1, "", fmt.Errorf("invalid random value")
	}

	count := big.NewInt(int64(len(participants)))
	index := int(new(big.Int).Mod(randomValue, count).Int64())
	return index, participants[index], nil
}
