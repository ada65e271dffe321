package models

import "time"

// ReportHistory is an immutable pre-image snapshot taken before a structural
// change to a report. Only the previous values of fields that actually
// changed are populated; the rest stay NULL.
type ReportHistory struct {
	ID                  uint          `gorm:"primaryKey" json:"id"`
	ReportID            uint          `gorm:"not null;index" json:"report_id"`
	PrevName            *string       `gorm:"size:255" json:"prev_name"`
	PrevReflection      *string       `gorm:"type:text" json:"prev_reflection"`
	PrevRealizationDate *time.Time    `json:"prev_realization_date"`
	PrevStatus          *ReportStatus `gorm:"size:32" json:"prev_status"`
	PrevCertificate     []byte        `gorm:"type:bytea" json:"-"`
	ChangedAt           time.Time     `gorm:"not null;index" json:"changed_at"`
	CreatedAt           time.Time     `json:"created_at"`
}

// ReportFieldSet marks which mutable report fields a change touched.
type ReportFieldSet struct {
	Name            bool
	Reflection      bool
	RealizationDate bool
	Status          bool
	Certificate     bool
}

// NewReportSnapshot builds the history row for a change to report occurring
// at the given instant, copying previous values only for the fields marked
// changed. Calling it twice for one logical change yields two rows; callers
// snapshot exactly once per mutation.
func NewReportSnapshot(report ActivityReport, changed ReportFieldSet, at time.Time) ReportHistory {
	entry := ReportHistory{
		ReportID:  report.ID,
		ChangedAt: at,
	}

	if changed.Name {
		name := report.Name
		entry.PrevName = &name
	}

	if changed.Reflection {
		reflection := report.Reflection
		entry.PrevReflection = &reflection
	}

	if changed.RealizationDate {
		date := report.RealizationDate
		entry.PrevRealizationDate = &date
	}

	if changed.Status {
		status := report.Status
		entry.PrevStatus = &status
	}

	if changed.Certificate && len(report.Certificate) > 0 {
		entry.PrevCertificate = append([]byte(nil), report.Certificate...)
	}

	return entry
}
