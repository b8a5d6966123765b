// Package audit records administrative actions.
package audit

import (
	"context"
	"database/sql"

	"lawfort/pkg/logger"
)

type Log struct {
	DB *sql.DB
}

func NewLog(db *sql.DB) *Log {
	return &Log{DB: db}
}

// Record writes one entry. A failed write is logged and never fails the
// action being audited.
func (l *Log) Record(ctx context.Context, adminID int64, action, details string) {
	if l == nil || l.DB == nil {
		return
	}
	_, err := l.DB.ExecContext(ctx,
		`INSERT INTO audit_logs (admin_id, action_type, action_details) VALUES ($1, $2, $3)`,
		adminID, action, details)
	if err != nil {
		logger.Sugar.Errorf("Failed to write audit log %s for admin %d: %v", action, adminID, err)
	}
}
