package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Spok95/pressops/internal/domain/errs"
)

// SQLSTATE codes the ledger cares about.
const (
	PgErrForeignKeyViolation = "23503"
	PgErrUniqueViolation     = "23505"
	PgErrCheckViolation      = "23514"
	PgErrNotNullViolation    = "23502"

	PgErrAdminShutdown      = "57P01" // terminating connection due to administrator command
	PgErrIdleSessionTimeout = "57P05" // terminating connection due to idle-session timeout
	PgErrIdleInTxTimeout    = "25P03"
)

// ConstraintError surfaces an integrity violation with the server's code
// and detail so callers can tell e.g. which unique key collided.
type ConstraintError struct {
	Code       string
	Constraint string
	Table      string
	Detail     string
	Message    string
}

func (e *ConstraintError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("constraint %s violated (%s): %s", e.Constraint, e.Code, e.Detail)
	}
	return fmt.Sprintf("constraint %s violated (%s): %s", e.Constraint, e.Code, e.Message)
}

func (e *ConstraintError) Is(target error) bool {
	switch target {
	case errs.ErrConflict:
		return e.Code == PgErrUniqueViolation
	case errs.ErrValidation:
		return e.Code == PgErrForeignKeyViolation || e.Code == PgErrCheckViolation || e.Code == PgErrNotNullViolation
	}
	return false
}

// Classify turns class 23 server errors into *ConstraintError and passes
// everything else through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || len(pgErr.Code) < 2 || pgErr.Code[:2] != "23" {
		return err
	}
	return &ConstraintError{
		Code:       pgErr.Code,
		Constraint: pgErr.ConstraintName,
		Table:      pgErr.TableName,
		Detail:     pgErr.Detail,
		Message:    pgErr.Message,
	}
}

// IsConnTerminated reports whether err means the server closed the session
// under us, which is safe to retry because nothing was committed.
func IsConnTerminated(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case PgErrAdminShutdown, PgErrIdleSessionTimeout, PgErrIdleInTxTimeout:
			return true
		}
		return false
	}
	return pgconn.SafeToRetry(err)
}
