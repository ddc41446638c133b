package member

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"id", "name", "last_name", "gender", "birthday", "mother_id", "father_id"}

const csvDateLayout = "2006-01-02"

// ExportCSV writes every member as a CSV row. Images and personal info are
// not exported.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	members, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range members {
		record := []string{
			strconv.FormatInt(m.ID, 10),
			m.Name,
			m.LastName,
			m.Gender,
			formatCSVDate(m.Birthday),
			formatCSVID(m.MotherID),
			formatCSVID(m.FatherID),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// ImportCSV upserts members from a CSV produced by ExportCSV, keeping ids so
// parent links survive the round trip.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if header[i] != col {
			return 0, fmt.Errorf("unexpected csv column %q, want %q", header[i], col)
		}
	}

	var members []Member
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv record: %w", err)
		}

		m, err := parseCSVRecord(record)
		if err != nil {
			return 0, err
		}
		members = append(members, m)
	}

	if len(members) == 0 {
		return 0, nil
	}

	if err := s.repo.UpsertBatch(ctx, members); err != nil {
		return 0, err
	}
	return len(members), nil
}

func parseCSVRecord(record []string) (Member, error) {
	id, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Member{}, fmt.Errorf("invalid id %q", record[0])
	}

	if err := validatePerson(record[1], record[2], record[3]); err != nil {
		return Member{}, fmt.Errorf("row id=%d: %w", id, err)
	}

	birthday, err := parseCSVDate(record[4])
	if err != nil {
		return Member{}, fmt.Errorf("row id=%d: invalid birthday %q", id, record[4])
	}

	motherID, err := parseCSVID(record[5])
	if err != nil {
		return Member{}, fmt.Errorf("row id=%d: invalid mother_id %q", id, record[5])
	}
	fatherID, err := parseCSVID(record[6])
	if err != nil {
		return Member{}, fmt.Errorf("row id=%d: invalid father_id %q", id, record[6])
	}

	return Member{
		ID:       id,
		Name:     record[1],
		LastName: record[2],
		Gender:   record[3],
		Birthday: birthday,
		MotherID: motherID,
		FatherID: fatherID,
	}, nil
}

func formatCSVDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(csvDateLayout)
}

func parseCSVDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(csvDateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func formatCSVID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func parseCSVID(value string) (*int64, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
