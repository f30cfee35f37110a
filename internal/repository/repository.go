// Package repository provides data access interfaces and their
// PostgreSQL implementations for the LitXplore backend.
//
// Repositories abstract persistence from business logic. All methods
// return domain-specific errors: domain.ErrNotFound when a resource
// does not exist (or is owned by another user), domain.ErrAlreadyExists
// on unique constraint violations, and domain.ErrInvalidInput for bad
// parameters. Database errors are wrapped with context via fmt.Errorf
// and the %w verb.
//
// Implementations accept the DBTX interface so they work with both the
// connection pool and an open transaction:
//
//	db, _ := database.New(ctx, cfg, logger)
//	users := repository.NewPgUserRepository(db)
//	tasks := repository.NewPgTaskRepository(db)
//
// All implementations are safe for concurrent use; pgxpool handles
// connection pooling and synchronization.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/litxplore/litxplore/internal/database"
)

// DBTX is the database interface supporting both pool and transaction
// contexts. See database.DBTX.
type DBTX = database.DBTX

// txBeginner is satisfied by pool-like DBTX implementations that can
// open a transaction. Task updates use it to wrap SELECT FOR UPDATE in
// an explicit transaction when handed a bare pool.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
