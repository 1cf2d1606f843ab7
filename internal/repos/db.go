package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Repos groups the repositories bound to one query executor, either the
// connection pool or an open transaction.
type Repos struct {
	Products   *ProductRepo
	Categories *CategoryRepo
	Carts      *CartRepo
	Discounts  *DiscountRepo
	Orders     *OrderRepo
	Addresses  *AddressRepo
	Users      *UserRepo
	Sessions   *SessionRepo
	Outbox     *OutboxRepo
}

func newRepos(q sqlx.ExtContext) Repos {
	return Repos{
		Products:   &ProductRepo{q: q},
		Categories: &CategoryRepo{q: q},
		Carts:      &CartRepo{q: q},
		Discounts:  &DiscountRepo{q: q},
		Orders:     &OrderRepo{q: q},
		Addresses:  &AddressRepo{q: q},
		Users:      &UserRepo{q: q},
		Sessions:   &SessionRepo{q: q},
		Outbox:     &OutboxRepo{q: q},
	}
}

type Store struct {
	Repos
	db *sqlx.DB
}

type Tx struct {
	Repos
	tx *sqlx.Tx
}

func (s *Store) Close() error { return s.db.Close() }

// InTx runs fn in one transaction and commits when it returns nil.
// With sqlite the pool holds a single connection, so fn must only use tx.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) (err error) {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil {
				err = errors.Join(err, rbErr)
			}
		}
	}()

	if err = fn(&Tx{Repos: newRepos(sqlTx), tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects, migrates and seeds. A postgres:// DSN selects pgx, anything
// else is a sqlite path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	if isPostgres(dsn) {
		db, err = sqlx.Open("pgx", dsn)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(10)
	} else {
		db, err = sqlx.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, err
		}
		// one writer; also keeps :memory: databases alive across calls
		db.SetMaxOpenConns(1)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{Repos: newRepos(db), db: db}
	if err := s.seed(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}
	return s, nil
}

func sqliteDSN(dsn string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}
	return dsn + "?" + params
}
