package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/seat-reservation/internal/domain"
)

type PostgresSeatMapRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatMapRepository(db *pgxpool.Pool) *PostgresSeatMapRepository {
	return &PostgresSeatMapRepository{
		db: db,
	}
}

var readSnapshotTx = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

func (p *PostgresSeatMapRepository) GetByID(ctx context.Context, mapID uuid.UUID) (*domain.SeatMap, error) {
	var m *domain.SeatMap

	err := runInTx(ctx, p.db, readSnapshotTx, func(tx pgx.Tx) error {
		snapshot := domain.SeatMapSnapshot{ID: mapID}

		err := tx.QueryRow(ctx, `SELECT event_id FROM seat_maps WHERE id = $1`, mapID).Scan(&snapshot.EventID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrMapNotFound
			}

			return err
		}

		snapshot.Categories, err = p.loadCategories(ctx, tx, mapID)
		if err != nil {
			return err
		}

		snapshot.Seats, err = p.loadSeats(ctx, tx, mapID)
		if err != nil {
			return err
		}

		m, err = domain.RestoreSeatMap(snapshot)

		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (p *PostgresSeatMapRepository) loadCategories(
	ctx context.Context,
	tx pgx.Tx,
	mapID uuid.UUID) ([]domain.CategorySnapshot, error) {

	query := `
		SELECT name, base_price, has_priority
		FROM seat_categories
		WHERE map_id = $1
		ORDER BY position, name_key
	`

	rows, err := tx.Query(ctx, query, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.CategorySnapshot

	for rows.Next() {
		var (
			category  domain.CategorySnapshot
			basePrice pgtype.Numeric
		)

		err = rows.Scan(&category.Name, &basePrice, &category.HasPriority)
		if err != nil {
			return nil, err
		}

		category.BasePrice, err = numericToDecimal(basePrice)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", category.Name, err)
		}

		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (p *PostgresSeatMapRepository) loadSeats(ctx context.Context, tx pgx.Tx, mapID uuid.UUID) ([]domain.SeatSnapshot, error) {
	query := `
		SELECT id, seat_row, seat_number, category_key, reserved, paid, held_by, held_at, version
		FROM seats
		WHERE map_id = $1
		ORDER BY position, id
	`

	rows, err := tx.Query(ctx, query, mapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []domain.SeatSnapshot

	for rows.Next() {
		seat, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func scanSeat(row pgx.Row, extra ...any) (domain.SeatSnapshot, error) {
	var (
		seat   domain.SeatSnapshot
		heldBy pgtype.Text
		heldAt pgtype.Timestamptz
	)

	dest := append([]any{
		&seat.ID,
		&seat.Row,
		&seat.Number,
		&seat.Category,
		&seat.Reserved,
		&seat.Paid,
		&heldBy,
		&heldAt,
		&seat.Version,
	}, extra...)

	if err := row.Scan(dest...); err != nil {
		return domain.SeatSnapshot{}, err
	}

	seat.HeldBy = heldBy.String
	if heldAt.Valid {
		seat.HeldAt = heldAt.Time.UTC()
	}

	return seat, nil
}

func (p *PostgresSeatMapRepository) GetSeatByID(ctx context.Context, seatID uuid.UUID) (*domain.Seat, error) {
	query := `
		SELECT
			s.id,
			s.seat_row,
			s.seat_number,
			s.category_key,
			s.reserved,
			s.paid,
			s.held_by,
			s.held_at,
			s.version,
			s.map_id,
			m.event_id,
			c.name,
			c.base_price,
			c.has_priority
		FROM seats s
		JOIN seat_maps m
			ON m.id = s.map_id
		JOIN seat_categories c
			ON c.map_id = s.map_id AND c.name_key = s.category_key
		WHERE s.id = $1
	`

	var (
		mapID     uuid.UUID
		eventID   string
		category  domain.CategorySnapshot
		basePrice pgtype.Numeric
	)

	seat, err := scanSeat(
		p.db.QueryRow(ctx, query, seatID),
		&mapID,
		&eventID,
		&category.Name,
		&basePrice,
		&category.HasPriority,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSeatNotFound
		}

		return nil, err
	}

	category.BasePrice, err = numericToDecimal(basePrice)
	if err != nil {
		return nil, err
	}

	return domain.RestoreSeat(mapID, eventID, category, seat)
}

// Save writes the change-set of m in one transaction. Modified seats are
// updated only when their stored version still matches the loaded one.
func (p *PostgresSeatMapRepository) Save(ctx context.Context, m *domain.SeatMap) error {
	err := runInTx(ctx, p.db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if m.IsNew() {
			_, err := tx.Exec(ctx, `INSERT INTO seat_maps (id, event_id) VALUES ($1, $2)`, m.ID(), m.EventID())
			if err != nil {
				return mapWriteError(err)
			}
		}

		if err := p.insertCategories(ctx, tx, m); err != nil {
			return mapWriteError(err)
		}

		if err := p.updateSeats(ctx, tx, m.ModifiedSeats()); err != nil {
			return mapWriteError(err)
		}

		if err := p.insertSeats(ctx, tx, m); err != nil {
			return mapWriteError(err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	m.MarkPersisted()

	return nil
}

func (p *PostgresSeatMapRepository) insertCategories(ctx context.Context, tx pgx.Tx, m *domain.SeatMap) error {
	pending := m.PendingCategories()
	if len(pending) == 0 {
		return nil
	}

	offset := len(m.Categories()) - len(pending)

	query := `
		INSERT INTO seat_categories (map_id, name_key, name, base_price, has_priority, position)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	batch := &pgx.Batch{}
	for i, c := range pending {
		batch.Queue(query, m.ID(), c.Key(), c.Name(), decimalToNumeric(c.BasePrice()), c.HasPriority(), offset+i)
	}

	return tx.SendBatch(ctx, batch).Close()
}

func (p *PostgresSeatMapRepository) updateSeats(ctx context.Context, tx pgx.Tx, seats []domain.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `
		UPDATE seats
		SET reserved = $1, paid = $2, held_by = $3, held_at = $4, version = version + 1
		WHERE id = $5 AND version = $6
	`

	batch := &pgx.Batch{}
	for i := range seats {
		seat := &seats[i]
		batch.Queue(
			query,
			seat.Reserved(),
			seat.Paid(),
			textOrNull(seat.HeldBy()),
			timestampOrNull(seat.HeldAt()),
			seat.ID(),
			seat.Version(),
		)
	}

	results := tx.SendBatch(ctx, batch)

	for i := range seats {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return err
		}

		if tag.RowsAffected() == 0 {
			results.Close()
			return fmt.Errorf("%w: seat %s was modified concurrently", domain.ErrEditConflict, seats[i].ID())
		}
	}

	return results.Close()
}

func (p *PostgresSeatMapRepository) insertSeats(ctx context.Context, tx pgx.Tx, m *domain.SeatMap) error {
	pending := m.PendingSeats()
	if len(pending) == 0 {
		return nil
	}

	offset := len(m.Seats()) - len(pending)

	rows := make([][]any, 0, len(pending))
	for i := range pending {
		seat := &pending[i]
		rows = append(rows, []any{
			seat.ID(),
			m.ID(),
			seat.Row(),
			seat.Number(),
			seat.Category().Key(),
			seat.Reserved(),
			seat.Paid(),
			textOrNull(seat.HeldBy()),
			timestampOrNull(seat.HeldAt()),
			1,
			offset + i,
		})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"seats"},
		[]string{
			"id", "map_id", "seat_row", "seat_number", "category_key",
			"reserved", "paid", "held_by", "held_at", "version", "position",
		},
		pgx.CopyFromRows(rows),
	)

	return err
}

func (p *PostgresSeatMapRepository) FindStaleHolds(
	ctx context.Context,
	heldBefore time.Time,
	limit int) ([]domain.StaleHold, error) {

	query := `
		SELECT s.map_id, s.id, m.event_id, s.held_by, s.held_at
		FROM seats s
		JOIN seat_maps m
			ON m.id = s.map_id
		WHERE s.reserved AND NOT s.paid AND s.held_at < $1
		ORDER BY s.held_at, s.id
		LIMIT $2
	`

	rows, err := p.db.Query(ctx, query, heldBefore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]domain.StaleHold, 0)

	for rows.Next() {
		var (
			hold   domain.StaleHold
			heldBy pgtype.Text
		)

		err = rows.Scan(&hold.MapID, &hold.SeatID, &hold.EventID, &heldBy, &hold.HeldAt)
		if err != nil {
			return nil, err
		}

		hold.UserID = heldBy.String
		holds = append(holds, hold)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holds, nil
}

func timestampOrNull(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}
