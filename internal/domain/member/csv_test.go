package member

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestExportImportRoundTrip(t *testing.T) {
	source := newFakeMemberRepo()
	birthday := time.Date(1960, 3, 14, 0, 0, 0, 0, time.UTC)
	mother := source.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale, Birthday: &birthday})
	source.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale, MotherID: int64Ptr(mother.ID)})

	var buf bytes.Buffer
	if err := NewService(source).ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("export: expected no error, got %v", err)
	}

	target := newFakeMemberRepo()
	count, err := NewService(target).ImportCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("import: expected no error, got %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 imported rows, got %d", count)
	}

	restored := target.members[mother.ID]
	if restored == nil {
		t.Fatalf("expected mother to keep id %d", mother.ID)
	}
	if restored.Birthday == nil || !restored.Birthday.Equal(birthday) {
		t.Fatalf("expected birthday to survive, got %v", restored.Birthday)
	}
	child := target.members[mother.ID+1]
	if child == nil || child.MotherID == nil || *child.MotherID != mother.ID {
		t.Fatalf("expected parent link to survive, got %+v", child)
	}
}

func TestImportRejectsUnknownHeader(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewService(repo)

	input := "id,name,surname,gender,birthday,mother_id,father_id\n1,Anna,Ivanova,female,,,\n"
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(input)); err == nil {
		t.Fatalf("expected header error")
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestImportRejectsBadRow(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewService(repo)

	input := "id,name,last_name,gender,birthday,mother_id,father_id\n1,Anna,Ivanova,unknown,,,\n"
	if _, err := svc.ImportCSV(context.Background(), strings.NewReader(input)); err == nil {
		t.Fatalf("expected gender error")
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected nothing stored")
	}
}
