// Package domain defines the lead models shared by the HTTP layer, the
// services, and the lead stores. Lead is mapped with GORM for the SQL store
// drivers and mirrors the row shape of the hosted "leads" table.
package domain

import (
	"encoding/json"
	"time"
)

// LeadSubmission is the contact data captured by the landing-page form.
// Every field is optional; nil means the field was absent from the request,
// which is distinct from an explicitly submitted empty string.
type LeadSubmission struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Email     *string
	Address   *string
}

// Lead is a stored lead row. The store assigns ID and CreatedAt; the contact
// columns keep the submitted values verbatim (no trimming, no validation).
//
// Fields:
//   - ID: store-assigned identifier (bigint identity).
//   - CreatedAt: insertion timestamp set by the store.
//   - Nombre/Apellido/Telefono/Email/Direccion: nullable contact columns.
type Lead struct {
	ID        int64     `json:"id"         gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime;index"`
	Nombre    *string   `json:"nombre"     gorm:"type:text"`
	Apellido  *string   `json:"apellido"   gorm:"type:text"`
	Telefono  *string   `json:"telefono"   gorm:"type:text"`
	Email     *string   `json:"email"      gorm:"type:text"`
	Direccion *string   `json:"direccion"  gorm:"type:text"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// Row is one inserted row exactly as the store echoed it back. Hosted tables
// are free to use other key types or carry extra columns, so rows are passed
// through undecoded.
type Row = json.RawMessage

// Rows encodes typed leads into Rows.
func Rows(leads ...Lead) ([]Row, error) {
	out := make([]Row, 0, len(leads))
	for _, l := range leads {
		b, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// NewLead maps a submission onto an unsaved Lead row.
func NewLead(s LeadSubmission) Lead {
	return Lead{
		Nombre:    s.FirstName,
		Apellido:  s.LastName,
		Telefono:  s.Phone,
		Email:     s.Email,
		Direccion: s.Address,
	}
}

// Str returns a pointer to s. Handy for building submissions in code.
func Str(s string) *string { return &s }
