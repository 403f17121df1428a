package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/phu-boop/ev-dealer-platform/internal/journal/dto"
	"github.com/phu-boop/ev-dealer-platform/internal/model"
)

type SQLiteRepository struct {
	DB  *sqlx.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{DB: db, now: time.Now}
}

type actionRow struct {
	model.ActionRecord
	CreatedAt int64 `db:"created_at"`
}

func (r *SQLiteRepository) Log(ctx context.Context, rec *model.ActionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	row := actionRow{ActionRecord: *rec, CreatedAt: rec.CreatedAt.UnixMilli()}

	query := `
        INSERT INTO action_journal (id, actor, action, order_id, outcome, message, created_at)
        VALUES (:id, :actor, :action, :order_id, :outcome, :message, :created_at)
    `
	if _, err := r.DB.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context, f *dto.Filters) ([]model.ActionRecord, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.OrderID != "" {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = f.OrderID
	}
	if f.Action != "" {
		conditions = append(conditions, "action = :action")
		args["action"] = string(f.Action)
	}
	if f.Outcome != "" {
		conditions = append(conditions, "outcome = :outcome")
		args["outcome"] = string(f.Outcome)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM action_journal"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM action_journal" + whereClause + " ORDER BY created_at DESC, rowid DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var rows []actionRow
	if err := nstmt.SelectContext(ctx, &rows, args); err != nil {
		return nil, 0, err
	}

	out := make([]model.ActionRecord, len(rows))
	for i, row := range rows {
		rec := row.ActionRecord
		rec.CreatedAt = time.UnixMilli(row.CreatedAt)
		out[i] = rec
	}
	return out, count, nil
}
