package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repositories gives access to all repositories bound to one database handle.
type Repositories interface {
	Customers() CustomerRepository
	Products() ProductRepository
	Orders() OrderRepository
}

// UnitOfWork runs fn inside a single transaction. The repositories passed to
// fn are scoped to that transaction; returning an error rolls back every
// write made through them.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos Repositories) error) error
}

// GORMStore implements Repositories and UnitOfWork on top of a *gorm.DB.
type GORMStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGORMStore creates a store bound to db.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{db: db}
}

func (s *GORMStore) Customers() CustomerRepository { return NewGORMCustomerRepository(s.db) }
func (s *GORMStore) Products() ProductRepository   { return NewGORMProductRepository(s.db) }
func (s *GORMStore) Orders() OrderRepository       { return NewGORMOrderRepository(s.db) }

// Do begins a transaction, runs fn and commits. Any error or panic from fn
// rolls the transaction back. A store that is already transactional runs fn
// in the existing transaction.
func (s *GORMStore) Do(ctx context.Context, fn func(repos Repositories) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx := &transaction{db: s.db.WithContext(ctx).Begin()}
	if tx.db.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.db.Error)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to roll back transaction: %w", rbErr))
			}
		}
	}()

	if err = fn(&GORMStore{db: tx.db, inTx: true}); err != nil {
		return err
	}
	return tx.commit()
}

// transaction tracks whether the underlying transaction has already been
// finished so that it is committed or rolled back exactly once.
type transaction struct {
	db       *gorm.DB
	finished bool
}

var errTxFinished = errors.New("transaction already finished")

func (t *transaction) commit() error {
	if t.finished {
		return errTxFinished
	}
	t.finished = true
	if err := t.db.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *transaction) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.db.Rollback().Error
}

// Store is what services depend on: direct repository access for simple
// reads and writes, plus a unit of work for multi-step changes.
type Store interface {
	Repositories
	UnitOfWork
}
