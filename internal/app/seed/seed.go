// Package seed loads an initial roster from a YAML file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chibo-dx/roster-api/internal/app/fees"
	"github.com/chibo-dx/roster-api/internal/app/meetings"
	"github.com/chibo-dx/roster-api/internal/app/members"
	"github.com/chibo-dx/roster-api/internal/domain"
)

var ErrRosterNotEmpty = errors.New("seed: roster already has members")

type File struct {
	Members  []Member  `yaml:"members"`
	Meetings []Meeting `yaml:"meetings"`
	Dues     []Dues    `yaml:"dues"`
}

type Member struct {
	Subject string            `yaml:"subject"`
	Fields  map[string]string `yaml:"fields"`
}

type Meeting struct {
	Title          string `yaml:"title"`
	Date           string `yaml:"date"`
	Type           string `yaml:"type"`
	Content        string `yaml:"content"`
	Resolution     string `yaml:"resolution"`
	AttendeesCount int    `yaml:"attendeesCount"`
	TotalMembers   int    `yaml:"totalMembers"`
}

// Dues opens a month for every active member.
type Dues struct {
	Year   int   `yaml:"year"`
	Month  int   `yaml:"month"`
	Amount int64 `yaml:"amount"`
}

type Result struct {
	Members  int
	Meetings int
	Fees     int
}

func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode rejects unknown keys so typos in a seed file fail loudly.
func Decode(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var out File
	if err := dec.Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("decode seed: %w", err)
	}
	return out, nil
}

type Service struct {
	Members  *members.Service
	Meetings *meetings.Service
	Fees     *fees.Service
}

// Apply writes f through the application services as a system secretary, so seeded
// records pass the same validation as ones entered by hand. It only runs on an empty roster.
func (s *Service) Apply(ctx context.Context, f File) (Result, error) {
	existing, err := s.Members.ListMembers(ctx, true)
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		return Result{}, ErrRosterNotEmpty
	}

	actor := domain.Actor{MemberID: "seed", Subject: "seed", Role: domain.MemberRoleSecretary}
	var res Result
	for i, m := range f.Members {
		in := members.CreateMemberInput{Fields: m.Fields}
		if m.Subject != "" {
			sub := domain.SubjectID(m.Subject)
			in.Subject = &sub
		}
		if _, err := s.Members.CreateMember(ctx, actor, in); err != nil {
			return res, fmt.Errorf("member #%d: %w", i+1, err)
		}
		res.Members++
	}
	for i, mt := range f.Meetings {
		_, err := s.Meetings.Create(ctx, actor, meetings.Input{
			Title:          mt.Title,
			Date:           mt.Date,
			Type:           domain.MeetingType(mt.Type),
			Content:        mt.Content,
			Resolution:     mt.Resolution,
			AttendeesCount: mt.AttendeesCount,
			TotalMembers:   mt.TotalMembers,
		})
		if err != nil {
			return res, fmt.Errorf("meeting #%d: %w", i+1, err)
		}
		res.Meetings++
	}
	for _, d := range f.Dues {
		added, err := s.Fees.AddMonth(ctx, actor, d.Year, d.Month, d.Amount)
		if err != nil {
			return res, fmt.Errorf("dues %04d-%02d: %w", d.Year, d.Month, err)
		}
		res.Fees += len(added)
	}
	return res, nil
}
