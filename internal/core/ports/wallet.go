package ports

import "context"

// WalletService holds the raffle pool funds.
type WalletService interface {
	Status(ctx context.Context) (WalletStatus, error)
	GetBalance(ctx context.Context) (uint64, error)
	// Deposit credits the pool with an entry payment and returns its txid.
	Deposit(ctx context.Context, from string, amount uint64) (string, error)
	// Transfer moves amount from the pool to the given recipient.
	Transfer(ctx context.Context, to string, amount uint64) (string, error)
	Close()
}

// WalletRestorer is implemented by wallets that do not keep the pool funds
// across restarts. Restore credits back the amount held by the restored
// round and returns the txid of the credit, or an empty txid if the wallet
// already holds at least that amount.
type WalletRestorer interface {
	Restore(ctx context.Context, roundId string, amount uint64) (string, error)
}

type WalletStatus interface {
	IsInitialized() bool
	IsUnlocked() bool
	IsSynced() bool
}
