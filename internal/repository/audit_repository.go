package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/admin-console/internal/models"
)

const auditColumns = "id, session_id, operator, action, screen, operation, filter, outcome, generation, ip_address, client, created_at"

// AuditRepository persists console audit entries.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an audit repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create stores an audit log entry, filling id and timestamp when unset.
func (r *AuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO console_audit_logs (` + auditColumns + `) VALUES (:id, :session_id, :operator, :action, :screen, :operation, :filter, :outcome, :generation, :ip_address, :client, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// List returns the newest entries matching filter.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if filter.Screen != "" {
		args = append(args, filter.Screen)
		conditions = append(conditions, fmt.Sprintf("screen = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := "SELECT " + auditColumns + " FROM console_audit_logs"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
