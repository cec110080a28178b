package service

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// OwnerType identifies whose wallet an operation targets.
type OwnerType string

const (
	OwnerUser   OwnerType = "USER"
	OwnerDriver OwnerType = "DRIVER"
)

// Wallet is the interface to the external wallet ledger. Debit fails with
// ErrInsufficientBalance when the owner cannot cover the amount.
type Wallet interface {
	Credit(ctx context.Context, ownerType OwnerType, ownerID string, amount float64, refType, refID, notes string) error
	Debit(ctx context.Context, ownerType OwnerType, ownerID string, amount float64, refType, refID, notes string) error
	GetBalance(ctx context.Context, ownerType OwnerType, ownerID string) (float64, error)
}

// MemoryWallet is an in-process wallet for development and tests.
type MemoryWallet struct {
	mu       sync.Mutex
	balances map[string]float64
}

// NewMemoryWallet creates a new MemoryWallet.
func NewMemoryWallet() *MemoryWallet {
	return &MemoryWallet{balances: make(map[string]float64)}
}

func walletKey(ownerType OwnerType, ownerID string) string {
	return string(ownerType) + ":" + ownerID
}

// Credit adds funds to an owner's balance.
func (w *MemoryWallet) Credit(ctx context.Context, ownerType OwnerType, ownerID string, amount float64, refType, refID, notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balances[walletKey(ownerType, ownerID)] += amount
	log.Printf("[WALLET] credit owner=%s:%s amount=%.2f ref=%s/%s", ownerType, ownerID, amount, refType, refID)
	return nil
}

// Debit removes funds from an owner's balance, failing when the balance
// cannot cover the amount.
func (w *MemoryWallet) Debit(ctx context.Context, ownerType OwnerType, ownerID string, amount float64, refType, refID, notes string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := walletKey(ownerType, ownerID)
	if w.balances[key] < amount {
		return fmt.Errorf("debit %.2f from %s: %w", amount, key, ErrInsufficientBalance)
	}

	w.balances[key] -= amount
	log.Printf("[WALLET] debit owner=%s:%s amount=%.2f ref=%s/%s", ownerType, ownerID, amount, refType, refID)
	return nil
}

// GetBalance returns an owner's balance.
func (w *MemoryWallet) GetBalance(ctx context.Context, ownerType OwnerType, ownerID string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[walletKey(ownerType, ownerID)], nil
}

// Ensure MemoryWallet implements Wallet.
var _ Wallet = (*MemoryWallet)(nil)

// PaymentGateway is the interface to the external payment collaborator.
// Only the refund signal crosses this boundary; refund execution is
// asynchronous and out of scope.
type PaymentGateway interface {
	RequestRefund(ctx context.Context, bookingID, paymentRef string, amount float64) error
}

// LogPaymentGateway records refund signals without executing them.
type LogPaymentGateway struct{}

// NewLogPaymentGateway creates a new LogPaymentGateway.
func NewLogPaymentGateway() *LogPaymentGateway {
	return &LogPaymentGateway{}
}

// RequestRefund logs the refund request.
func (g *LogPaymentGateway) RequestRefund(ctx context.Context, bookingID, paymentRef string, amount float64) error {
	log.Printf("[PAYMENT] refund requested booking=%s ref=%s amount=%.2f", bookingID, paymentRef, amount)
	return nil
}

// Ensure LogPaymentGateway implements PaymentGateway.
var _ PaymentGateway = (*LogPaymentGateway)(nil)
