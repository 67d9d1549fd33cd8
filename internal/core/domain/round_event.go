package domain

type EventType string

const (
	EventTypeRoundStarted  EventType = "RoundStarted"
	EventTypeRaffleEntered EventType = "RaffleEntered"
	EventTypeDrawStarted   EventType = "DrawStarted"
	EventTypeWinnerPicked  EventType = "WinnerPicked"
)

type RoundEvent interface {
	GetType() EventType
}

func (e RoundStarted) GetType() EventType  { return EventTypeRoundStarted }
func (e RaffleEntered) GetType() EventType { return EventTypeRaffleEntered }
func (e DrawStarted) GetType() EventType   { return EventTypeDrawStarted }
func (e WinnerPicked) GetType() EventType  { return EventTypeWinnerPicked }

type RoundStarted struct {
	Id          string
	EntranceFee uint64
	Interval    int64
	Timestamp   int64
}

type RaffleEntered struct {
	Id          string
	Participant string
	Amount      uint64
}

type DrawStarted struct {
	Id        string
	RequestId string
	Timestamp int64
}

type WinnerPicked struct {
	Id           string
	RequestId    string
	RandomValue  string
	WinnerIndex  int
	Winner       string
	NumOfEntries int
	Amount       uint64
	PayoutTxid   string
	Timestamp    int64
}
