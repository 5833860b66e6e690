package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/payment-ledger/internal/domain/shared"
)

// uniqueViolationCode is the SQLSTATE Postgres reports for unique_violation
const uniqueViolationCode = "23505"

// mapUniqueViolation converts a Postgres unique violation into the store-level error
// and leaves every other error untouched.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return shared.ErrUniqueViolation{Constraint: pgErr.ConstraintName}
	}
	return err
}
