package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/lesson_booking/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager opens pgx transactions and hands out tx-bound repositories.
type TxManager struct {
	pool *pgxpool.Pool
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Stores returns repositories bound to the pool, outside any transaction.
func (m *TxManager) Stores() Stores {
	return newStores(m.pool)
}

// WithinTx begins a transaction, runs fn and commits. Any error rolls back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, newStores(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

func newStores(db base.Querier) Stores {
	return Stores{
		Schedules: NewScheduleRepository(db),
		Slots:     NewSlotRepository(db),
		Bookings:  NewBookingRepository(db),
	}
}
