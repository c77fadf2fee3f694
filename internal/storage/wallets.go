package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrcamilo11/Presupuesto-sub001/internal/core"
)

const walletColumns = `id, user_id, name, type, currency, balance_cents,
	cut_off_day, payment_due_day, card_interest_rate, credit_limit_cents, created_at`

func scanWallet(s rowScanner) (*core.Wallet, error) {
	var (
		w              core.Wallet
		walletType     string
		balance        int64
		cutOff, dueDay sql.NullInt64
		cardRate       sql.NullFloat64
		creditLimit    sql.NullInt64
		createdAt      string
	)
	if err := s.Scan(&w.ID, &w.UserID, &w.Name, &walletType, &w.Currency, &balance,
		&cutOff, &dueDay, &cardRate, &creditLimit, &createdAt); err != nil {
		return nil, err
	}
	w.Type = core.WalletType(walletType)
	w.Balance = core.FromCents(balance)
	if cutOff.Valid {
		terms := &core.CreditCardTerms{
			CutOffDay:          int(cutOff.Int64),
			AnnualInterestRate: cardRate.Float64,
			CreditLimit:        core.FromCents(creditLimit.Int64),
		}
		if dueDay.Valid {
			d := int(dueDay.Int64)
			terms.PaymentDueDay = &d
		}
		w.CreditCard = terms
	}
	w.CreatedAt = parseTimestamp(createdAt)
	return &w, nil
}

func (r *Repository) getWallet(ctx context.Context, q querier, id string) (*core.Wallet, error) {
	w, err := scanWallet(q.QueryRowContext(ctx, r.rebind("SELECT "+walletColumns+" FROM wallets WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: core.EntityWallet, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	return w, nil
}

// CreateWallet stores a new wallet.
func (r *Repository) CreateWallet(ctx context.Context, w core.Wallet) error {
	var (
		cutOff, dueDay sql.NullInt64
		cardRate       sql.NullFloat64
		creditLimit    sql.NullInt64
	)
	if c := w.CreditCard; c != nil {
		cutOff = sql.NullInt64{Int64: int64(c.CutOffDay), Valid: true}
		dueDay = nullInt(c.PaymentDueDay)
		cardRate = sql.NullFloat64{Float64: c.AnnualInterestRate, Valid: true}
		creditLimit = sql.NullInt64{Int64: core.ToCents(c.CreditLimit), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.rebind(`INSERT INTO wallets (`+walletColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		w.ID, w.UserID, w.Name, string(w.Type), w.Currency, core.ToCents(w.Balance),
		cutOff, dueDay, cardRate, creditLimit, w.CreatedAt.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	slog.InfoContext(ctx, "Wallet saved", "id", w.ID, "user_id", w.UserID, "type", w.Type)
	return nil
}

// GetWallet returns the wallet or a NotFoundError.
func (r *Repository) GetWallet(ctx context.Context, id string) (*core.Wallet, error) {
	return r.getWallet(ctx, r.db, id)
}

// ListWallets returns a user's wallets.
func (r *Repository) ListWallets(ctx context.Context, userID string) ([]core.Wallet, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind("SELECT "+walletColumns+
		" FROM wallets WHERE user_id = ? ORDER BY created_at, id"), userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []core.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallets: %w", err)
	}
	return wallets, nil
}

func (r *Repository) adjustWalletBalance(ctx context.Context, q querier, id string, deltaCents int64) error {
	res, err := q.ExecContext(ctx, r.rebind("UPDATE wallets SET balance_cents = balance_cents + ? WHERE id = ?"), deltaCents, id)
	if err != nil {
		return fmt.Errorf("adjust wallet balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust wallet balance: %w", err)
	}
	if n == 0 {
		return &core.NotFoundError{Entity: core.EntityWallet, ID: id}
	}
	return nil
}
