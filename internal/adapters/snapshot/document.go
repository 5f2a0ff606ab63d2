// Package snapshot persists the whole branch state as one YAML document.
//
// Every committed mutation rewrites the file from full in-memory snapshots of each
// collection; there is no partial write and no log to replay.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chibo-dx/roster-api/internal/domain"
)

// FormatVersion is written to every document; Load refuses newer formats.
const FormatVersion = 1

// Document is the on-disk shape.
type Document struct {
	Format       int                 `yaml:"format"`
	Members      []MemberRecord      `yaml:"members"`
	EditRequests []EditRequestRecord `yaml:"editRequests"`
	Fees         []FeeRecord         `yaml:"fees"`
	Meetings     []MeetingRecord     `yaml:"meetings"`
}

// MemberRecord stores member fields by their wire names; unset optional fields are omitted.
type MemberRecord struct {
	ID        string            `yaml:"id"`
	Subject   string            `yaml:"subject,omitempty"`
	Fields    map[string]string `yaml:"fields"`
	Version   int64             `yaml:"version"`
	CreatedAt time.Time         `yaml:"createdAt"`
	UpdatedAt time.Time         `yaml:"updatedAt"`
}

type EditRequestRecord struct {
	ID          string            `yaml:"id"`
	MemberID    string            `yaml:"memberId"`
	MemberName  string            `yaml:"memberName"`
	SubmittedBy string            `yaml:"submittedBy"`
	SubmittedAt time.Time         `yaml:"submittedAt"`
	Changes     map[string]string `yaml:"changes"`
}

type FeeRecord struct {
	ID          string    `yaml:"id"`
	MemberID    string    `yaml:"memberId"`
	MemberName  string    `yaml:"memberName"`
	Month       int       `yaml:"month"`
	Year        int       `yaml:"year"`
	Amount      int64     `yaml:"amount"`
	IsPaid      bool      `yaml:"isPaid"`
	PaymentDate string    `yaml:"paymentDate,omitempty"`
	CreatedAt   time.Time `yaml:"createdAt"`
	UpdatedAt   time.Time `yaml:"updatedAt"`
}

type MeetingRecord struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Date           string    `yaml:"date"`
	Type           string    `yaml:"type"`
	Content        string    `yaml:"content,omitempty"`
	Resolution     string    `yaml:"resolution,omitempty"`
	AttendeesCount int       `yaml:"attendeesCount"`
	TotalMembers   int       `yaml:"totalMembers"`
	CreatedAt      time.Time `yaml:"createdAt"`
	UpdatedAt      time.Time `yaml:"updatedAt"`
}

// ReadFile decodes the document at path. A missing file yields an empty document.
func ReadFile(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{Format: FormatVersion}, nil
		}
		return Document{}, fmt.Errorf("read snapshot: %w", err)
	}
	var doc Document
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{Format: FormatVersion}, nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Document{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if doc.Format > FormatVersion {
		return Document{}, fmt.Errorf("snapshot %s: unsupported format %d", path, doc.Format)
	}
	return doc, nil
}

// WriteFile replaces path with doc. The document is written to a temporary file in the
// same directory and renamed over the target, so readers see the old or the new state.
func WriteFile(path string, doc Document) error {
	doc.Format = FormatVersion
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func memberRecord(m domain.Member) MemberRecord {
	rec := MemberRecord{
		ID:        string(m.ID),
		Fields:    make(map[string]string),
		Version:   m.Version,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.Subject != nil {
		rec.Subject = string(*m.Subject)
	}
	for _, f := range domain.MemberFields() {
		if v := m.Get(f); v != "" {
			rec.Fields[string(f)] = v
		}
	}
	return rec
}

func (rec MemberRecord) member() (domain.Member, error) {
	m := domain.Member{
		ID:        domain.MemberID(rec.ID),
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt.UTC(),
	}
	if m.ID == "" {
		return domain.Member{}, errors.New("member without id")
	}
	if rec.Subject != "" {
		sub := domain.SubjectID(rec.Subject)
		m.Subject = &sub
	}
	for k, v := range rec.Fields {
		f := domain.MemberField(k)
		if !f.Valid() {
			return domain.Member{}, fmt.Errorf("member %s: unknown field %q", rec.ID, k)
		}
		m.Set(f, v)
	}
	if m.Version < 1 {
		m.Version = 1
	}
	return m, nil
}

func editRequestRecord(r domain.EditRequest) EditRequestRecord {
	return EditRequestRecord{
		ID:          string(r.ID),
		MemberID:    string(r.MemberID),
		MemberName:  r.MemberName,
		SubmittedBy: string(r.SubmittedBy),
		SubmittedAt: r.SubmittedAt.UTC(),
		Changes:     r.Changes.Raw(),
	}
}

func (rec EditRequestRecord) editRequest() (domain.EditRequest, error) {
	changes, err := domain.ParseChanges(rec.Changes)
	if err != nil {
		return domain.EditRequest{}, fmt.Errorf("edit request %s: %w", rec.ID, err)
	}
	return domain.EditRequest{
		ID:          domain.EditRequestID(rec.ID),
		MemberID:    domain.MemberID(rec.MemberID),
		MemberName:  rec.MemberName,
		SubmittedBy: domain.SubjectID(rec.SubmittedBy),
		SubmittedAt: rec.SubmittedAt.UTC(),
		Changes:     changes,
	}, nil
}

func feeRecord(f domain.Fee) FeeRecord {
	rec := FeeRecord{
		ID:         string(f.ID),
		MemberID:   string(f.MemberID),
		MemberName: f.MemberName,
		Month:      f.Month,
		Year:       f.Year,
		Amount:     f.Amount,
		IsPaid:     f.IsPaid,
		CreatedAt:  f.CreatedAt.UTC(),
		UpdatedAt:  f.UpdatedAt.UTC(),
	}
	if f.PaymentDate != nil {
		rec.PaymentDate = *f.PaymentDate
	}
	return rec
}

func (rec FeeRecord) fee() domain.Fee {
	f := domain.Fee{
		ID:         domain.FeeID(rec.ID),
		MemberID:   domain.MemberID(rec.MemberID),
		MemberName: rec.MemberName,
		Month:      rec.Month,
		Year:       rec.Year,
		Amount:     rec.Amount,
		IsPaid:     rec.IsPaid,
		CreatedAt:  rec.CreatedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
	}
	if rec.PaymentDate != "" {
		d := rec.PaymentDate
		f.PaymentDate = &d
	}
	return f
}

func meetingRecord(m domain.Meeting) MeetingRecord {
	return MeetingRecord{
		ID:             string(m.ID),
		Title:          m.Title,
		Date:           m.Date,
		Type:           string(m.Type),
		Content:        m.Content,
		Resolution:     m.Resolution,
		AttendeesCount: m.AttendeesCount,
		TotalMembers:   m.TotalMembers,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

func (rec MeetingRecord) meeting() domain.Meeting {
	return domain.Meeting{
		ID:             domain.MeetingID(rec.ID),
		Title:          rec.Title,
		Date:           rec.Date,
		Type:           domain.MeetingType(rec.Type),
		Content:        rec.Content,
		Resolution:     rec.Resolution,
		AttendeesCount: rec.AttendeesCount,
		TotalMembers:   rec.TotalMembers,
		CreatedAt:      rec.CreatedAt.UTC(),
		UpdatedAt:      rec.UpdatedAt.UTC(),
	}
}
