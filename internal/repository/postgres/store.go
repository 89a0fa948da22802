package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/contactsbook/internal/repository"
	"github.com/utafrali/contactsbook/pkg/database"
)

// Pool is the subset of *pgxpool.Pool the store needs; pgxmock pools
// satisfy it as well.
type Pool interface {
	database.DBTX
	database.TxBeginner
}

// Store implements repository.Store. A Store created by InTx routes every
// query through its transaction.
type Store struct {
	pool Pool
	q    database.DBTX
	inTx bool
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a store over pool.
func NewStore(pool Pool) *Store {
	return &Store{pool: pool, q: pool}
}

func (s *Store) Users() repository.UserRepository {
	return NewUserRepository(s.q)
}

func (s *Store) Contacts() repository.ContactRepository {
	return NewContactRepository(s.q)
}

// InTx runs fn with a transaction-bound store. Nested calls reuse the
// outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return database.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, q: tx, inTx: true})
	})
}

// Ping runs SELECT 1 so it exercises a real round trip.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.q.QueryRow(ctx, "SELECT 1").Scan(&one)
}
