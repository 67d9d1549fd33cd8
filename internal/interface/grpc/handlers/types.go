package handlers

import (
	"github.com/ark-network/raffle/internal/core/application"
	"github.com/ark-network/raffle/internal/core/domain"
	"github.com/gin-gonic/gin"
)

type enterRequest struct {
	Participant string `json:"participant" binding:"required"`
	Amount      uint64 `json:"amount"`
}

type fulfillRequest struct {
	RequestId   string   `json:"requestId" binding:"required"`
	RandomWords []string `json:"randomWords" binding:"required"`
}

type infoResponse struct {
	RoundId              string `json:"roundId"`
	EntranceFee          uint64 `json:"entranceFee"`
	Interval             int64  `json:"interval"`
	Phase                string `json:"phase"`
	NumOfParticipants    int    `json:"numOfParticipants"`
	Balance              uint64 `json:"balance"`
	LastRoundTimestamp   int64  `json:"lastRoundTimestamp"`
	NextDrawTimestamp    int64  `json:"nextDrawTimestamp"`
	RecentWinner         string `json:"recentWinner"`
	PendingRequestId     string `json:"pendingRequestId"`
	KeyHash              string `json:"keyHash"`
	SubscriptionId       uint64 `json:"subscriptionId"`
	RequestConfirmations uint16 `json:"requestConfirmations"`
	CallbackGasLimit     uint32 `json:"callbackGasLimit"`
	NumWords             uint32 `json:"numWords"`
}

func newInfoResponse(info *application.RaffleInfo) infoResponse {
	return infoResponse{
		RoundId:              info.RoundId,
		EntranceFee:          info.EntranceFee,
		Interval:             info.Interval,
		Phase:                info.Phase.String(),
		NumOfParticipants:    info.NumOfParticipants,
		Balance:              info.Balance,
		LastRoundTimestamp:   info.LastRoundTimestamp,
		NextDrawTimestamp:    info.NextDrawTimestamp,
		RecentWinner:         info.RecentWinner,
		PendingRequestId:     info.PendingRequestId,
		KeyHash:              info.KeyHash,
		SubscriptionId:       info.SubscriptionId,
		RequestConfirmations: info.RequestConfirmations,
		CallbackGasLimit:     info.CallbackGasLimit,
		NumWords:             info.NumWords,
	}
}

type upkeepResponse struct {
	UpkeepNeeded      bool   `json:"upkeepNeeded"`
	IsOpen            bool   `json:"isOpen"`
	TimePassed        bool   `json:"timePassed"`
	HasBalance        bool   `json:"hasBalance"`
	HasParticipants   bool   `json:"hasParticipants"`
	Balance           uint64 `json:"balance"`
	NumOfParticipants int    `json:"numOfParticipants"`
	Phase             string `json:"phase"`
}

func newUpkeepResponse(status *domain.UpkeepStatus) upkeepResponse {
	return upkeepResponse{
		UpkeepNeeded:      status.UpkeepNeeded,
		IsOpen:            status.IsOpen,
		TimePassed:        status.TimePassed,
		HasBalance:        status.HasBalance,
		HasParticipants:   status.HasParticipants,
		Balance:           status.Balance,
		NumOfParticipants: status.NumOfParticipants,
		Phase:             status.Phase.String(),
	}
}

type roundResponse struct {
	Id                string   `json:"id"`
	StartingTimestamp int64    `json:"startingTimestamp"`
	EndingTimestamp   int64    `json:"endingTimestamp,omitempty"`
	Phase             string   `json:"phase"`
	Ended             bool     `json:"ended"`
	EntranceFee       uint64   `json:"entranceFee"`
	Interval          int64    `json:"interval"`
	Participants      []string `json:"participants"`
	Balance           uint64   `json:"balance"`
	RequestId         string   `json:"requestId,omitempty"`
	DrawTimestamp     int64    `json:"drawTimestamp,omitempty"`
	RandomValue       string   `json:"randomValue,omitempty"`
	WinnerIndex       int      `json:"winnerIndex"`
	Winner            string   `json:"winner,omitempty"`
	NumOfEntries      int      `json:"numOfEntries"`
	PayoutAmount      uint64   `json:"payoutAmount,omitempty"`
	PayoutTxid        string   `json:"payoutTxid,omitempty"`
}

func newRoundResponse(round domain.Round) roundResponse {
	return roundResponse{
		Id:                round.Id,
		StartingTimestamp: round.StartingTimestamp,
		EndingTimestamp:   round.EndingTimestamp,
		Phase:             round.Stage.Code.String(),
		Ended:             round.Stage.Ended,
		EntranceFee:       round.EntranceFee,
		Interval:          round.Interval,
		Participants:      round.Participants(),
		Balance:           round.Balance(),
		RequestId:         round.RequestId,
		DrawTimestamp:     round.DrawTimestamp,
		RandomValue:       round.RandomValue,
		WinnerIndex:       round.WinnerIndex,
		Winner:            round.Winner,
		NumOfEntries:      round.NumOfEntries,
		PayoutAmount:      round.PayoutAmount,
		PayoutTxid:        round.PayoutTxid,
	}
}

type payoutResponse struct {
	RoundId      string `json:"roundId"`
	RequestId    string `json:"requestId"`
	RandomValue  string `json:"randomValue"`
	WinnerIndex  int    `json:"winnerIndex"`
	Winner       string `json:"winner"`
	NumOfEntries int    `json:"numOfEntries"`
	Amount       uint64 `json:"amount"`
	Attempts     int    `json:"attempts"`
	LastError    string `json:"lastError,omitempty"`
	CreatedAt    int64  `json:"createdAt"`
	UpdatedAt    int64  `json:"updatedAt"`
}

func newPayoutResponse(p domain.Payout) payoutResponse {
	return payoutResponse{
		RoundId:      p.RoundId,
		RequestId:    p.RequestId,
		RandomValue:  p.RandomValue,
		WinnerIndex:  p.WinnerIndex,
		Winner:       p.Winner,
		NumOfEntries: p.NumOfEntries,
		Amount:       p.Amount,
		Attempts:     p.Attempts,
		LastError:    p.LastError,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type eventResponse struct {
	Type string `json:"type"`
	Data gin.H  `json:"data"`
}

func newEventResponse(event domain.RoundEvent) (*eventResponse, bool) {
	var data gin.H
	switch e := event.(type) {
	case domain.RoundStarted:
		data = gin.H{
			"roundId":     e.Id,
			"entranceFee": e.EntranceFee,
			"interval":    e.Interval,
			"timestamp":   e.Timestamp,
		}
	case domain.RaffleEntered:
		data = gin.H{
			"roundId":     e.Id,
			"participant": e.Participant,
			"amount":      e.Amount,
		}
	case domain.DrawStarted:
		data = gin.H{
			"roundId":   e.Id,
			"requestId": e.RequestId,
			"timestamp": e.Timestamp,
		}
	case domain.WinnerPicked:
		data = gin.H{
			"roundId":      e.Id,
			"requestId":    e.RequestId,
			"randomValue":  e.RandomValue,
			"winnerIndex":  e.WinnerIndex,
			"winner":       e.Winner,
			"numOfEntries": e.NumOfEntries,
			"amount":       e.Amount,
			"payoutTxid":   e.PayoutTxid,
			"timestamp":    e.Timestamp,
		}
	default:
		return nil, false
	}
	return &eventResponse{Type: string(event.GetType()), Data: data}, true
}
