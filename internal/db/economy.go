package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vox/internal/models"
)

// EconomyRepository owns every balance-affecting mutation. All of them
// are check-then-mutate across multiple persisted facts and run inside
// one transaction with a guarded debit, so a balance can never go
// negative under concurrent load.
type EconomyRepository struct {
	db *DB
}

func NewEconomyRepository(db *DB) *EconomyRepository {
	return &EconomyRepository{db: db}
}

// Transfer moves crystals between two users atomically. Returns the new
// sender and recipient balances.
func (r *EconomyRepository) Transfer(sender, recipient string, amount int64) (senderBalance, recipientBalance int64, err error) {
	if amount < 1 {
		return 0, 0, fmt.Errorf("amount must be at least 1")
	}

	err = r.db.WithTx(func(tx *sql.Tx) error {
		if err := debit(tx, sender, amount); err != nil {
			return err
		}

		result, err := tx.Exec(`UPDATE users SET crystals = crystals + ? WHERE username = ? AND deleted = 0`,
			amount, recipient)
		if err != nil {
			return fmt.Errorf("crediting recipient: %w", err)
		}
		if err := checkRowsAffected(result); err != nil {
			return err
		}

		if err := tx.QueryRow(`SELECT crystals FROM users WHERE username = ?`, sender).Scan(&senderBalance); err != nil {
			return fmt.Errorf("reading sender balance: %w", err)
		}
		if err := tx.QueryRow(`SELECT crystals FROM users WHERE username = ?`, recipient).Scan(&recipientBalance); err != nil {
			return fmt.Errorf("reading recipient balance: %w", err)
		}
		return nil
	})
	return senderBalance, recipientBalance, err
}

// PurchaseGift debits the sender by the price and appends the gift log
// entry in one transaction. The recipient's balance is unaffected.
func (r *EconomyRepository) PurchaseGift(sender, recipient, giftID string, price int64) (*models.Gift, int64, error) {
	id, err := GenerateID("gft")
	if err != nil {
		return nil, 0, fmt.Errorf("generating gift ID: %w", err)
	}
	now := time.Now().UTC()

	var newBalance int64
	err = r.db.WithTx(func(tx *sql.Tx) error {
		if price > 0 {
			if err := debit(tx, sender, price); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(
			`INSERT INTO gifts (id, recipient, sender, gift_id, price, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			id, recipient, sender, giftID, price, now,
		); err != nil {
			return fmt.Errorf("logging gift: %w", err)
		}
		return tx.QueryRow(`SELECT crystals FROM users WHERE username = ?`, sender).Scan(&newBalance)
	})
	if err != nil {
		return nil, 0, err
	}

	return &models.Gift{
		ID:        id,
		Recipient: recipient,
		Sender:    sender,
		GiftID:    giftID,
		Price:     price,
		CreatedAt: now,
	}, newBalance, nil
}

// Grant credits crystals without a source account (admin action).
func (r *EconomyRepository) Grant(username string, amount int64) (int64, error) {
	var balance int64
	err := r.db.WithTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`UPDATE users SET crystals = crystals + ? WHERE username = ?`, amount, username)
		if err != nil {
			return fmt.Errorf("granting crystals: %w", err)
		}
		if err := checkRowsAffected(result); err != nil {
			return err
		}
		return tx.QueryRow(`SELECT crystals FROM users WHERE username = ?`, username).Scan(&balance)
	})
	return balance, err
}

// Reset zeroes a balance (admin action).
func (r *EconomyRepository) Reset(username string) error {
	result, err := r.db.Exec(`UPDATE users SET crystals = 0 WHERE username = ?`, username)
	if err != nil {
		return fmt.Errorf("resetting crystals: %w", err)
	}
	return checkRowsAffected(result)
}

func (r *EconomyRepository) Balance(username string) (int64, error) {
	var balance int64
	err := r.db.QueryRow(`SELECT crystals FROM users WHERE username = ?`, username).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reading balance: %w", err)
	}
	return balance, nil
}

// debit subtracts amount from the user's balance, failing with
// ErrInsufficientFunds when the guard matches no row. The balance check
// and the mutation are one statement, so no interleaving can overdraw.
func debit(tx *sql.Tx, username string, amount int64) error {
	result, err := tx.Exec(
		`UPDATE users SET crystals = crystals - ? WHERE username = ? AND crystals >= ?`,
		amount, username, amount,
	)
	if err != nil {
		return fmt.Errorf("debiting sender: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking debit: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
