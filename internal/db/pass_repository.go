package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/bubblebuff/internal/model"
)

// PassRepository сохраняет отчёты проходов баффера.
// Реализует buff.Sink.
type PassRepository struct {
	db *pgxpool.Pool
}

// NewPassRepository создаёт новый PassRepository.
func NewPassRepository(db *pgxpool.Pool) *PassRepository {
	return &PassRepository{db: db}
}

// Report сохраняет отчёт вместе с результатами по баффам и отказами
// в одной транзакции.
func (r *PassRepository) Report(ctx context.Context, report *model.PassReport) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op после commit
	}()

	if _, err := tx.Exec(ctx,
		`INSERT INTO buff_passes (id, buff_group, mode, attempted, skipped, rejected, accepted, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		report.ID, report.Group.String(), report.Mode.String(),
		report.Attempted, report.Skipped, report.Rejected, report.Accepted, report.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting pass %s: %w", report.ID, err)
	}

	// Батч для entries и rejections: один round-trip вместо N
	batch := &pgx.Batch{}
	for pos, b := range report.Buffs {
		batch.Queue(
			`INSERT INTO buff_pass_entries (pass_id, position, buff_id, name, good, skip, bad, fault)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			report.ID, pos, b.BuffID, b.Name, b.Good, b.Skip, b.Bad, b.Fault,
		)
		for seq, rej := range b.Rejections {
			batch.Queue(
				`INSERT INTO buff_pass_rejections (pass_id, position, seq, caster, target, reason)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				report.ID, pos, seq, rej.Caster, rej.Target, string(rej.Reason),
			)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("inserting entries of pass %s: %w", report.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Recent загружает последние limit отчётов, новые первыми.
func (r *PassRepository) Recent(ctx context.Context, limit int) ([]*model.PassReport, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, buff_group, mode, attempted, skipped, rejected, accepted, created_at
		 FROM buff_passes
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying passes: %w", err)
	}
	defer rows.Close()

	reports := make([]*model.PassReport, 0, limit)
	byID := make(map[uuid.UUID]*model.PassReport, limit)
	for rows.Next() {
		var (
			rep         model.PassReport
			group, mode string
		)
		if err := rows.Scan(&rep.ID, &group, &mode,
			&rep.Attempted, &rep.Skipped, &rep.Rejected, &rep.Accepted, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning pass row: %w", err)
		}
		if rep.Group, err = model.ParseBuffGroup(group); err != nil {
			return nil, fmt.Errorf("pass %s: %w", rep.ID, err)
		}
		if rep.Mode, err = model.ParseReapplyMode(mode); err != nil {
			return nil, fmt.Errorf("pass %s: %w", rep.ID, err)
		}
		reports = append(reports, &rep)
		byID[rep.ID] = &rep
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pass rows: %w", err)
	}
	if len(reports) == 0 {
		return reports, nil
	}

	ids := make([]uuid.UUID, 0, len(reports))
	for _, rep := range reports {
		ids = append(ids, rep.ID)
	}
	if err := r.loadEntries(ctx, ids, byID); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *PassRepository) loadEntries(ctx context.Context, ids []uuid.UUID, byID map[uuid.UUID]*model.PassReport) error {
	rows, err := r.db.Query(ctx,
		`SELECT pass_id, position, buff_id, name, good, skip, bad, fault
		 FROM buff_pass_entries
		 WHERE pass_id = ANY($1)
		 ORDER BY pass_id, position`, ids)
	if err != nil {
		return fmt.Errorf("querying pass entries: %w", err)
	}
	defer rows.Close()

	type entryKey struct {
		pass uuid.UUID
		pos  int
	}
	entries := make(map[entryKey]*model.BuffResult)
	for rows.Next() {
		var (
			passID uuid.UUID
			pos    int
			b      model.BuffResult
		)
		if err := rows.Scan(&passID, &pos, &b.BuffID, &b.Name, &b.Good, &b.Skip, &b.Bad, &b.Fault); err != nil {
			return fmt.Errorf("scanning pass entry row: %w", err)
		}
		rep := byID[passID]
		rep.Buffs = append(rep.Buffs, &b)
		entries[entryKey{passID, pos}] = &b
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating pass entry rows: %w", err)
	}

	rejRows, err := r.db.Query(ctx,
		`SELECT pass_id, position, caster, target, reason
		 FROM buff_pass_rejections
		 WHERE pass_id = ANY($1)
		 ORDER BY pass_id, position, seq`, ids)
	if err != nil {
		return fmt.Errorf("querying pass rejections: %w", err)
	}
	defer rejRows.Close()

	for rejRows.Next() {
		var (
			passID uuid.UUID
			pos    int
			rej    model.Rejection
			reason string
		)
		if err := rejRows.Scan(&passID, &pos, &rej.Caster, &rej.Target, &reason); err != nil {
			return fmt.Errorf("scanning pass rejection row: %w", err)
		}
		rej.Reason = model.RejectReason(reason)
		if b, ok := entries[entryKey{passID, pos}]; ok {
			b.Rejections = append(b.Rejections, rej)
		}
	}
	if err := rejRows.Err(); err != nil {
		return fmt.Errorf("iterating pass rejection rows: %w", err)
	}
	return nil
}

// Prune удаляет все отчёты, кроме последних keep.
func (r *PassRepository) Prune(ctx context.Context, keep int) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM buff_passes
		 WHERE id NOT IN (SELECT id FROM buff_passes ORDER BY created_at DESC LIMIT $1)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning passes: %w", err)
	}
	return tag.RowsAffected(), nil
}
