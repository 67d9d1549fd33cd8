package inmemorywallet

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/ark-network/raffle/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	log "github.com/sirupsen/logrus"
)

type walletStatus struct{}

func (walletStatus) IsInitialized() bool { return true }
func (walletStatus) IsUnlocked() bool    { return true }
func (walletStatus) IsSynced() bool      { return true }

// Transfer is a movement of funds in or out of the pool.
type Transfer struct {
	Txid         string
	Counterparty string
	Amount       uint64
	Outgoing     bool
}

type service struct {
	lock    sync.RWMutex
	balance uint64
	history []Transfer
}

// NewService returns a wallet that keeps the pool ledger in memory.
func NewService() ports.WalletService {
	return &service{history: make([]Transfer, 0)}
}

func (s *service) Status(_ context.Context) (ports.WalletStatus, error) {
	return walletStatus{}, nil
}

func (s *service) GetBalance(_ context.Context) (uint64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.balance, nil
}

func (s *service) Deposit(_ context.Context, from string, amount uint64) (string, error) {
	if len(from) <= 0 {
		return "", fmt.Errorf("missing depositor")
	}
	if amount == 0 {
		return "", fmt.Errorf("invalid deposit amount %d", amount)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.balance += amount
	txid := s.record(from, amount, false)
	log.Debugf("wallet: received %s from %s (%s)", btcutil.Amount(amount), from, txid)
	return txid, nil
}

func (s *service) Transfer(_ context.Context, to string, amount uint64) (string, error) {
	if len(to) <= 0 {
		return "", fmt.Errorf("missing recipient")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if amount > s.balance {
		return "", fmt.Errorf(
			"insufficient funds: got %s, need %s",
			btcutil.Amount(s.balance), btcutil.Amount(amount),
		)
	}

	s.balance -= amount
	txid := s.record(to, amount, true)
	log.Debugf("wallet: sent %s to %s (%s)", btcutil.Amount(amount), to, txid)
	return txid, nil
}

// Restore tops the pool up to amount. The in-memory ledger is empty after a
// restart while the restored round still accounts for the entries it
// collected.
func (s *service) Restore(_ context.Context, roundId string, amount uint64) (string, error) {
	if len(roundId) <= 0 {
		return "", fmt.Errorf("missing round id")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.balance >= amount {
		return "", nil
	}

	missing := amount - s.balance
	s.balance = amount
	txid := s.record(roundId, missing, false)
	log.Infof("wallet: restored %s for round %s (%s)", btcutil.Amount(missing), roundId, txid)
	return txid, nil
}

func (s *service) Close() {}

func (s *service) record(counterparty string, amount uint64, outgoing bool) string {
	buf := make([]byte, 17)
	binary.BigEndian.PutUint64(buf[:8], uint64(len(s.history)))
	binary.BigEndian.PutUint64(buf[8:16], amount)
	if outgoing {
		buf[16] = 1
	}
	buf = append(buf, []byte(counterparty)...)
	txid := chainhash.DoubleHashH(buf).String()

	s.history = append(s.history, Transfer{txid, counterparty, amount, outgoing})
	return txid
}
