package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq" // PostgreSQL driver
)

// NewPostgresStore connects to PostgreSQL and ensures the pages table.
func NewPostgresStore(dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: dsn is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to connect: %w", err)
	}

	s := &sqlStore{db: db, d: dialect{name: "postgres", numbered: true, isUnique: isPostgresUnique}}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

func isPostgresUnique(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
