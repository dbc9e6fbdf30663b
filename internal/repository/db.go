package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vitaup/VitaUpBack/internal/store"
)

// AuthenticatedRole is the database role user-scoped statements run as.
// Row-level security policies on the user tables are written against it.
const AuthenticatedRole = "vitaup_authenticated"

var ErrDuplicate = errors.New("duplicate key")

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// WithUser runs fn in a transaction acting as userID: the JWT subject
// claim is set for the policies and the role is dropped to
// AuthenticatedRole until commit.
func WithUser(ctx context.Context, db TxBeginner, userID string, fn func(q DBTX) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin user tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT set_config('request.jwt.claim.sub', $1, true)", userID); err != nil {
		return fmt.Errorf("set user claim: %w", err)
	}
	if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+AuthenticatedRole); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return translate(err)
	}
	return nil
}

// translate maps pgx errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNoRows, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case store.CodePermissionDenied:
			return &store.APIError{Status: http.StatusForbidden, Code: pgErr.Code, Message: pgErr.Message, Err: store.ErrPermissionDenied}
		case store.CodeUniqueViolation:
			return &store.APIError{Status: http.StatusConflict, Code: pgErr.Code, Message: pgErr.Message, Err: ErrDuplicate}
		}
	}
	return err
}
