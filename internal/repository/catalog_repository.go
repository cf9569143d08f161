package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"elifsite/internal/model"
)

var ErrTotalMismatch = errors.New("stored total does not match its parts")

// PgxConn is the part of *pgxpool.Pool the catalog repository needs.
type PgxConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type CatalogRepository struct {
	DB PgxConn
}

const selectLevels = `
	SELECT category, position, level, tuition, device_fee, software_fee,
	       theme_color, text_color, border_color, bg_gradient, total
	FROM course_levels
	ORDER BY position, level`

// Load reads the catalog in display order. A row whose stored total differs
// from tuition + device fee + software fee is rejected.
func (r *CatalogRepository) Load(ctx context.Context) (model.Catalog, error) {
	rows, err := r.DB.Query(ctx, selectLevels)
	if err != nil {
		return model.Catalog{}, fmt.Errorf("query course levels: %w", err)
	}
	defer rows.Close()

	var c model.Catalog
	for rows.Next() {
		var (
			name     string
			position int
			total    int
			lvl      model.Level
			theme    model.Theme
		)
		if err := rows.Scan(&name, &position, &lvl.Number, &lvl.Tuition, &lvl.DeviceFee, &lvl.SoftwareFee,
			&theme.ThemeColor, &theme.TextColor, &theme.BorderColor, &theme.BgGradient, &total); err != nil {
			return model.Catalog{}, fmt.Errorf("scan course level: %w", err)
		}
		if total != lvl.Total() {
			return model.Catalog{}, fmt.Errorf("%w: %s level %d stores %d, parts add up to %d",
				ErrTotalMismatch, name, lvl.Number, total, lvl.Total())
		}

		n := len(c.Categories)
		if n == 0 || c.Categories[n-1].Name != name {
			c.Categories = append(c.Categories, model.Category{Name: name, Theme: theme})
			n++
		}
		c.Categories[n-1].Levels = append(c.Categories[n-1].Levels, lvl)
	}
	if err := rows.Err(); err != nil {
		return model.Catalog{}, fmt.Errorf("read course levels: %w", err)
	}
	return c, nil
}

const insertLevel = `
	INSERT INTO course_levels
	(category, position, level, tuition, device_fee, software_fee,
	 theme_color, text_color, border_color, bg_gradient, total)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// Seed replaces the stored catalog with c in one transaction.
func (r *CatalogRepository) Seed(ctx context.Context, c model.Catalog) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM course_levels`); err != nil {
		tx.Rollback(ctx)
		return fmt.Errorf("clear course levels: %w", err)
	}
	for pos, cat := range c.Categories {
		for _, lvl := range cat.Levels {
			_, err := tx.Exec(ctx, insertLevel,
				cat.Name, pos, lvl.Number, lvl.Tuition, lvl.DeviceFee, lvl.SoftwareFee,
				cat.Theme.ThemeColor, cat.Theme.TextColor, cat.Theme.BorderColor, cat.Theme.BgGradient, lvl.Total())
			if err != nil {
				tx.Rollback(ctx)
				return fmt.Errorf("insert %s level %d: %w", cat.Name, lvl.Number, err)
			}
		}
	}
	return tx.Commit(ctx)
}
