package db

import (
	"errors"
	"sync"
	"testing"
)

func seedUsers(t *testing.T, database *DB, names ...string) *UserRepository {
	t.Helper()
	users := NewUserRepository(database)
	for _, name := range names {
		if _, err := users.Create(name, "hash", name, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}
	return users
}

func TestTransferConservesTotal(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, err := economy.Grant("alice", 100); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	senderBalance, recipientBalance, err := economy.Transfer("alice", "bob", 30)
	if err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if senderBalance != 70 {
		t.Fatalf("sender balance = %d, want 70", senderBalance)
	}
	if recipientBalance != 30 {
		t.Fatalf("recipient balance = %d, want 30", recipientBalance)
	}
	if senderBalance+recipientBalance != 100 {
		t.Fatalf("total = %d, want 100", senderBalance+recipientBalance)
	}
}

func TestTransferRejectsOverdraw(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, err := economy.Grant("alice", 10); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	if _, _, err := economy.Transfer("alice", "bob", 11); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Transfer() error = %v, want ErrInsufficientFunds", err)
	}

	balance, err := economy.Balance("alice")
	if err != nil {
		t.Fatalf("Balance() error = %v", err)
	}
	if balance != 10 {
		t.Fatalf("balance after failed transfer = %d, want 10", balance)
	}
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	for _, amount := range []int64{0, -5} {
		if _, _, err := economy.Transfer("alice", "bob", amount); err == nil {
			t.Fatalf("Transfer(%d) succeeded, want error", amount)
		}
	}
}

func TestConcurrentTransfersNeverOverdraw(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, err := economy.Grant("alice", 50); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			economy.Transfer("alice", "bob", 10)
		}()
	}
	wg.Wait()

	aliceBalance, err := economy.Balance("alice")
	if err != nil {
		t.Fatalf("Balance(alice) error = %v", err)
	}
	bobBalance, err := economy.Balance("bob")
	if err != nil {
		t.Fatalf("Balance(bob) error = %v", err)
	}
	if aliceBalance < 0 {
		t.Fatalf("alice balance = %d, want >= 0", aliceBalance)
	}
	if aliceBalance+bobBalance != 50 {
		t.Fatalf("total = %d, want 50", aliceBalance+bobBalance)
	}
}

func TestPurchaseGiftBurnsPrice(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, err := economy.Grant("alice", 100); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	gift, balance, err := economy.PurchaseGift("alice", "bob", "teddy", 40)
	if err != nil {
		t.Fatalf("PurchaseGift() error = %v", err)
	}
	if balance != 60 {
		t.Fatalf("sender balance = %d, want 60", balance)
	}
	if gift.Recipient != "bob" || gift.GiftID != "teddy" {
		t.Fatalf("gift = %+v, want bob/teddy", gift)
	}

	// The price is burned, not credited.
	bobBalance, err := economy.Balance("bob")
	if err != nil {
		t.Fatalf("Balance(bob) error = %v", err)
	}
	if bobBalance != 0 {
		t.Fatalf("recipient balance = %d, want 0", bobBalance)
	}
}

func TestPurchaseGiftRejectsInsufficientFunds(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, _, err := economy.PurchaseGift("alice", "bob", "teddy", 40); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("PurchaseGift() error = %v, want ErrInsufficientFunds", err)
	}
}

func TestPurchaseGiftFreeGift(t *testing.T) {
	database := openTestDB(t)
	seedUsers(t, database, "alice", "bob")
	economy := NewEconomyRepository(database)

	if _, balance, err := economy.PurchaseGift("alice", "bob", "wave", 0); err != nil || balance != 0 {
		t.Fatalf("PurchaseGift() = balance %d, error %v; want 0, nil", balance, err)
	}
}
