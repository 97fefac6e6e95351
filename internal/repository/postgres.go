package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
	"github.com/shopspring/decimal"
)

func runInTx(ctx context.Context, db *pgxpool.Pool, txOptions pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return mapWriteError(tx.Commit(ctx))
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

// mapWriteError turns the constraint violations a concurrent writer can cause
// into ErrEditConflict.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation, pgerrcode.ForeignKeyViolation, pgerrcode.SerializationFailure:
		return fmt.Errorf("%w: %s", domain.ErrEditConflict, pgErr.ConstraintName)
	default:
		return err
	}
}

func numericToDecimal(n pgtype.Numeric) (decimal.NullDecimal, error) {
	if !n.Valid {
		return decimal.NullDecimal{}, nil
	}

	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.NullDecimal{}, fmt.Errorf("unsupported numeric value")
	}

	return decimal.NewNullDecimal(decimal.NewFromBigInt(n.Int, n.Exp)), nil
}

func decimalToNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}

	return pgtype.Numeric{
		Int:   d.Decimal.Coefficient(),
		Exp:   d.Decimal.Exponent(),
		Valid: true,
	}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
