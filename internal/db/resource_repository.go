package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/bubblebuff/internal/model"
)

// ErrInsufficientResource возвращается Spend, когда в пуле не хватает единиц.
var ErrInsufficientResource = errors.New("insufficient resource")

// ResourceRepository хранит текущие значения пулов ресурсов персонажей.
// Реализует buff.ResourceCatalog.
type ResourceRepository struct {
	db *pgxpool.Pool
}

// NewResourceRepository создаёт новый ResourceRepository.
func NewResourceRepository(db *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ResourceAmount возвращает текущее значение пула.
// Отсутствующая запись означает пустой пул.
func (r *ResourceRepository) ResourceAmount(ctx context.Context, caster model.UnitID, pool model.PoolID) (int, error) {
	var amount int
	err := r.db.QueryRow(ctx,
		`SELECT amount FROM character_resources WHERE unit_id = $1 AND pool_id = $2`,
		string(caster), string(pool),
	).Scan(&amount)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("querying %s of %s: %w", pool, caster, err)
	}
	return amount, nil
}

// SetAmount перезаписывает значение пула (upsert).
func (r *ResourceRepository) SetAmount(ctx context.Context, caster model.UnitID, pool model.PoolID, amount int) error {
	if amount < 0 {
		amount = 0
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO character_resources (unit_id, pool_id, amount, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (unit_id, pool_id) DO UPDATE
		 SET amount = EXCLUDED.amount, updated_at = NOW()`,
		string(caster), string(pool), amount,
	)
	if err != nil {
		return fmt.Errorf("setting %s of %s: %w", pool, caster, err)
	}
	return nil
}

// Spend атомарно списывает amount из пула.
// Возвращает ErrInsufficientResource, если списание увело бы пул в минус.
func (r *ResourceRepository) Spend(ctx context.Context, caster model.UnitID, pool model.PoolID, amount int) error {
	if amount <= 0 {
		return nil
	}
	tag, err := r.db.Exec(ctx,
		`UPDATE character_resources
		 SET amount = amount - $3, updated_at = NOW()
		 WHERE unit_id = $1 AND pool_id = $2 AND amount >= $3`,
		string(caster), string(pool), amount,
	)
	if err != nil {
		return fmt.Errorf("spending %d %s of %s: %w", amount, pool, caster, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("spending %d %s of %s: %w", amount, pool, caster, ErrInsufficientResource)
	}
	return nil
}

// Seed записывает начальные значения пулов, не трогая уже существующие.
// Все вставки выполняются в одной транзакции.
func (r *ResourceRepository) Seed(ctx context.Context, amounts map[model.UnitID]map[model.PoolID]int) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op после commit
	}()

	for unit, pools := range amounts {
		for pool, amount := range pools {
			if _, err := tx.Exec(ctx,
				`INSERT INTO character_resources (unit_id, pool_id, amount)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (unit_id, pool_id) DO NOTHING`,
				string(unit), string(pool), max(amount, 0),
			); err != nil {
				return fmt.Errorf("seeding %s of %s: %w", pool, unit, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
