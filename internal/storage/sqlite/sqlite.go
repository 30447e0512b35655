// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tipsplit/internal/models"
	"github.com/mmynk/tipsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys are a per-connection setting; the DSN pragma applies it
	// to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTemplate persists a new template with its rules and participants.
func (s *SQLiteStore) CreateTemplate(ctx context.Context, tmpl *models.TipTemplate) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if tmpl.CreatedAt == 0 {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = tmpl.CreatedAt
	if tmpl.Name == "" {
		tmpl.Name = generateName(tmpl)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO templates (id, name, rule_type, formula, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		tmpl.ID, tmpl.Name, string(tmpl.Rules.Type), tmpl.Rules.Formula, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert template: %w", err)
	}

	if err := insertTemplateChildren(ctx, tx, tmpl); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetTemplate retrieves a template by ID, including rules and participants.
func (s *SQLiteStore) GetTemplate(ctx context.Context, templateID string) (*models.TipTemplate, error) {
	tmpl := &models.TipTemplate{}
	var ruleType string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, rule_type, formula, created_at, updated_at FROM templates WHERE id = ?",
		templateID,
	).Scan(&tmpl.ID, &tmpl.Name, &ruleType, &tmpl.Rules.Formula, &tmpl.CreatedAt, &tmpl.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", templateID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	tmpl.Rules.Type = models.ParseRuleType(ruleType)

	if err := s.loadTemplateChildren(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// ListTemplates returns every template, most recently updated first.
func (s *SQLiteStore) ListTemplates(ctx context.Context) ([]*models.TipTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM templates ORDER BY updated_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan template id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate templates: %w", err)
	}

	templates := make([]*models.TipTemplate, 0, len(ids))
	for _, id := range ids {
		tmpl, err := s.GetTemplate(ctx, id)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// UpdateTemplate replaces a template's name, rules and participants.
func (s *SQLiteStore) UpdateTemplate(ctx context.Context, tmpl *models.TipTemplate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tmpl.UpdatedAt = max(time.Now().Unix(), tmpl.CreatedAt)
	result, err := tx.ExecContext(ctx,
		"UPDATE templates SET name = ?, rule_type = ?, formula = ?, updated_at = ? WHERE id = ?",
		tmpl.Name, string(tmpl.Rules.Type), tmpl.Rules.Formula, tmpl.UpdatedAt, tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	} else if n == 0 {
		return fmt.Errorf("template %s: %w", tmpl.ID, storage.ErrNotFound)
	}

	for _, table := range []string{"template_participants", "role_weights", "off_the_top_rules"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE template_id = ?", tmpl.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := insertTemplateChildren(ctx, tx, tmpl); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTemplate removes a template. Its rules, participants and split
// history cascade.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, templateID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", templateID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %s: %w", templateID, storage.ErrNotFound)
	}
	return nil
}

// insertTemplateChildren writes participants, role weights and off-the-top rules.
func insertTemplateChildren(ctx context.Context, tx *sql.Tx, tmpl *models.TipTemplate) error {
	for i := range tmpl.Participants {
		p := &tmpl.Participants[i]
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO template_participants (template_id, position, participant_id, name, role, hours, weight) VALUES (?, ?, ?, ?, ?, ?, ?)",
			tmpl.ID, i, p.ID, p.Name, p.Role, nullFloat(p.Hours), nullFloat(p.Weight),
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for _, role := range slices.Sorted(maps.Keys(tmpl.Rules.RoleWeights)) {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO role_weights (template_id, role, weight) VALUES (?, ?, ?)",
			tmpl.ID, role, tmpl.Rules.RoleWeights[role],
		)
		if err != nil {
			return fmt.Errorf("failed to insert role weight: %w", err)
		}
	}

	for i, rule := range tmpl.Rules.OffTheTop {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO off_the_top_rules (template_id, position, role, percentage) VALUES (?, ?, ?, ?)",
			tmpl.ID, i, rule.Role, rule.Percentage,
		)
		if err != nil {
			return fmt.Errorf("failed to insert off-the-top rule: %w", err)
		}
	}
	return nil
}

// loadTemplateChildren reads participants, role weights and off-the-top rules.
func (s *SQLiteStore) loadTemplateChildren(ctx context.Context, tmpl *models.TipTemplate) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, name, role, hours, weight FROM template_participants WHERE template_id = ? ORDER BY position",
		tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.Participant
		var hours, weight sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &hours, &weight); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Hours = floatPtr(hours)
		p.Weight = floatPtr(weight)
		tmpl.Participants = append(tmpl.Participants, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	weightRows, err := s.db.QueryContext(ctx,
		"SELECT role, weight FROM role_weights WHERE template_id = ? ORDER BY role",
		tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get role weights: %w", err)
	}
	defer weightRows.Close()

	for weightRows.Next() {
		var role string
		var weight float64
		if err := weightRows.Scan(&role, &weight); err != nil {
			return fmt.Errorf("failed to scan role weight: %w", err)
		}
		if tmpl.Rules.RoleWeights == nil {
			tmpl.Rules.RoleWeights = make(map[string]float64)
		}
		tmpl.Rules.RoleWeights[role] = weight
	}
	if err := weightRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate role weights: %w", err)
	}

	ruleRows, err := s.db.QueryContext(ctx,
		"SELECT role, percentage FROM off_the_top_rules WHERE template_id = ? ORDER BY position",
		tmpl.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get off-the-top rules: %w", err)
	}
	defer ruleRows.Close()

	for ruleRows.Next() {
		var rule models.OffTheTopRule
		if err := ruleRows.Scan(&rule.Role, &rule.Percentage); err != nil {
			return fmt.Errorf("failed to scan off-the-top rule: %w", err)
		}
		tmpl.Rules.OffTheTop = append(tmpl.Rules.OffTheTop, rule)
	}
	if err := ruleRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate off-the-top rules: %w", err)
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// generateName creates a template name from its rule type and team size.
func generateName(tmpl *models.TipTemplate) string {
	rule := models.ParseRuleType(string(tmpl.Rules.Type))
	switch n := len(tmpl.Participants); n {
	case 0:
		return fmt.Sprintf("%s split - %s", rule, time.Now().Format("Jan 2, 2006"))
	case 1:
		return fmt.Sprintf("%s split for 1 person", rule)
	default:
		return fmt.Sprintf("%s split for %d people", rule, n)
	}
}
