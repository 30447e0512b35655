package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tipsplit/internal/models"
	"github.com/mmynk/tipsplit/internal/storage"
)

// SaveSplit records a computed split with its allocations and warnings.
// Amounts are stored in cents.
func (s *SQLiteStore) SaveSplit(ctx context.Context, record *models.SplitRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt == 0 {
		record.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO splits (id, template_id, rule_type, pool, created_at) VALUES (?, ?, ?, ?, ?)",
		record.ID, record.TemplateID, string(record.RuleType), record.Pool, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert split: %w", err)
	}

	for i, p := range record.Result.Participants {
		var cents sql.NullInt64
		if p.CalculatedAmount != nil {
			cents = sql.NullInt64{Int64: int64(math.Round(*p.CalculatedAmount * 100)), Valid: true}
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO split_allocations (split_id, position, participant_id, name, role, amount_cents) VALUES (?, ?, ?, ?, ?, ?)",
			record.ID, i, p.ID, p.Name, p.Role, cents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}

	for i, w := range record.Result.Warnings {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO split_warnings (split_id, position, message) VALUES (?, ?, ?)",
			record.ID, i, w,
		)
		if err != nil {
			return fmt.Errorf("failed to insert warning: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSplit retrieves a recorded split by ID.
func (s *SQLiteStore) GetSplit(ctx context.Context, splitID string) (*models.SplitRecord, error) {
	record := &models.SplitRecord{}
	var ruleType string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, rule_type, pool, created_at FROM splits WHERE id = ?",
		splitID,
	).Scan(&record.ID, &record.TemplateID, &ruleType, &record.Pool, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	record.RuleType = models.ParseRuleType(ruleType)

	if err := s.loadSplitResult(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListSplits returns a template's recorded splits, newest first.
func (s *SQLiteStore) ListSplits(ctx context.Context, templateID string) ([]*models.SplitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM splits WHERE template_id = ? ORDER BY created_at DESC, id",
		templateID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan split id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	records := make([]*models.SplitRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.GetSplit(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *SQLiteStore) loadSplitResult(ctx context.Context, record *models.SplitRecord) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, name, role, amount_cents FROM split_allocations WHERE split_id = ? ORDER BY position",
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get allocations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		var cents sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &cents); err != nil {
			return fmt.Errorf("failed to scan allocation: %w", err)
		}
		if cents.Valid {
			amount := float64(cents.Int64) / 100
			p.CalculatedAmount = &amount
		}
		record.Result.Participants = append(record.Result.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate allocations: %w", err)
	}

	warnRows, err := s.db.QueryContext(ctx,
		"SELECT message FROM split_warnings WHERE split_id = ? ORDER BY position",
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get warnings: %w", err)
	}
	defer warnRows.Close()

	record.Result.Warnings = []string{}
	for warnRows.Next() {
		var msg string
		if err := warnRows.Scan(&msg); err != nil {
			return fmt.Errorf("failed to scan warning: %w", err)
		}
		record.Result.Warnings = append(record.Result.Warnings, msg)
	}
	if err := warnRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate warnings: %w", err)
	}
	return nil
}
