// Package repo implements the SQL lead store backed by GORM. This file
// provides the insert path for the Lead model.
//
// LeadRepo is a thin repository: it maps a submission to a row, inserts it,
// and returns the inserted rows with their store-assigned columns. Database
// errors are propagated unchanged so callers can surface the raw message.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-lead-capture/internal/domain"
)

// LeadRepo inserts leads into Table using DB.
type LeadRepo struct {
	DB    *gorm.DB
	Table string
}

// NewLeadRepo builds a LeadRepo. An empty table falls back to "leads".
func NewLeadRepo(db *gorm.DB, table string) *LeadRepo {
	if table == "" {
		table = domain.Lead{}.TableName()
	}
	return &LeadRepo{DB: db, Table: table}
}

// InsertLead inserts one row built from sub and returns it with the
// store-assigned id and created_at.
func InsertLead(ctx context.Context, db *gorm.DB, table string, sub domain.LeadSubmission) ([]domain.Lead, error) {
	row := domain.NewLead(sub)
	if err := db.WithContext(ctx).Table(table).Create(&row).Error; err != nil {
		return nil, err
	}
	return []domain.Lead{row}, nil
}

// Insert implements the lead store contract for the SQL drivers. The
// inserted row is returned in its JSON form, the shape every store shares.
func (r *LeadRepo) Insert(ctx context.Context, sub domain.LeadSubmission) ([]domain.Row, error) {
	leads, err := InsertLead(ctx, r.DB, r.Table, sub)
	if err != nil {
		return nil, err
	}
	return domain.Rows(leads...)
}

// Name reports the store kind for logs and metrics.
func (r *LeadRepo) Name() string { return "sql:" + r.DB.Dialector.Name() }
