package member

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
)

type fakeMemberRepo struct {
	members map[int64]*Member
	nextID  int64
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[int64]*Member)}
}

func (r *fakeMemberRepo) add(m Member) *Member {
	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
	} else if m.ID > r.nextID {
		r.nextID = m.ID
	}
	stored := m
	r.members[stored.ID] = &stored
	return &stored
}

func (r *fakeMemberRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeMemberRepo) GetByID(ctx context.Context, id int64) (*Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, ErrMemberNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMemberRepo) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.members[id]
	return ok, nil
}

func (r *fakeMemberRepo) ListAll(ctx context.Context) ([]Member, error) {
	items := make([]Member, 0, len(r.members))
	for _, m := range r.members {
		items = append(items, *m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *fakeMemberRepo) Search(ctx context.Context, query string, offset, limit int) ([]Member, error) {
	all, _ := r.ListAll(ctx)
	items := make([]Member, 0, len(all))
	for _, m := range all {
		if query == "" ||
			strings.Contains(strings.ToLower(m.Name), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(m.LastName), strings.ToLower(query)) {
			items = append(items, m)
		}
	}
	if offset >= len(items) {
		return []Member{}, nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items, nil
}

func (r *fakeMemberRepo) Create(ctx context.Context, m *Member) error {
	r.nextID++
	m.ID = r.nextID
	stored := *m
	r.members[m.ID] = &stored
	return nil
}

func (r *fakeMemberRepo) Update(ctx context.Context, m *Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return ErrMemberNotFound
	}
	stored := *m
	r.members[m.ID] = &stored
	return nil
}

func (r *fakeMemberRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.members[id]; !ok {
		return ErrMemberNotFound
	}
	delete(r.members, id)
	return nil
}

func (r *fakeMemberRepo) ClearParentRefs(ctx context.Context, parentID int64) error {
	for _, m := range r.members {
		if m.MotherID != nil && *m.MotherID == parentID {
			m.MotherID = nil
		}
		if m.FatherID != nil && *m.FatherID == parentID {
			m.FatherID = nil
		}
	}
	return nil
}

func (r *fakeMemberRepo) UpsertBatch(ctx context.Context, members []Member) error {
	for _, m := range members {
		r.add(m)
	}
	return nil
}

func int64Ptr(v int64) *int64 { return &v }

func TestCreateMemberSuccess(t *testing.T) {
	repo := newFakeMemberRepo()
	mother := repo.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale})
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), CreateInput{
		Name:     "Maria",
		LastName: "Ivanova",
		Gender:   GenderFemale,
		MotherID: int64Ptr(mother.ID),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	stored := repo.members[created.ID]
	if stored == nil || stored.MotherID == nil || *stored.MotherID != mother.ID {
		t.Fatalf("member not stored with mother link: %+v", stored)
	}
}

func TestCreateMemberParentNotFound(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:     "Maria",
		LastName: "Ivanova",
		Gender:   GenderFemale,
		MotherID: int64Ptr(42),
	})
	if !errors.Is(err, ErrParentNotFound) {
		t.Fatalf("expected ErrParentNotFound, got %v", err)
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected nothing stored, got %d members", len(repo.members))
	}
}

func TestCreateMemberInvalidGender(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		Name:     "Maria",
		LastName: "Ivanova",
		Gender:   "other",
	})
	if !errors.Is(err, ErrInvalidGender) {
		t.Fatalf("expected ErrInvalidGender, got %v", err)
	}
}

func TestUpdateMemberSetAndClearParent(t *testing.T) {
	repo := newFakeMemberRepo()
	mother := repo.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale})
	child := repo.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale})
	svc := NewService(repo)

	updated, err := svc.Update(context.Background(), child.ID, UpdateInput{MotherID: int64Ptr(mother.ID)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.MotherID == nil || *updated.MotherID != mother.ID {
		t.Fatalf("expected mother set, got %+v", updated.MotherID)
	}

	updated, err = svc.Update(context.Background(), child.ID, UpdateInput{ClearMother: true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.MotherID != nil {
		t.Fatalf("expected mother cleared, got %v", *updated.MotherID)
	}
}

func TestUpdateMemberSelfParentRejected(t *testing.T) {
	repo := newFakeMemberRepo()
	m := repo.add(Member{Name: "Ivan", LastName: "Ivanov", Gender: GenderMale})
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), m.ID, UpdateInput{FatherID: int64Ptr(m.ID)})
	if !errors.Is(err, ErrCycleWouldForm) {
		t.Fatalf("expected ErrCycleWouldForm, got %v", err)
	}
}

func TestUpdateMemberAncestorCycleRejected(t *testing.T) {
	repo := newFakeMemberRepo()
	grandmother := repo.add(Member{Name: "Olga", LastName: "Ivanova", Gender: GenderFemale})
	mother := repo.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale, MotherID: int64Ptr(grandmother.ID)})
	child := repo.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale, MotherID: int64Ptr(mother.ID)})
	svc := NewService(repo)

	// Linking the grandmother below her own descendant closes a cycle.
	_, err := svc.Update(context.Background(), grandmother.ID, UpdateInput{MotherID: int64Ptr(child.ID)})
	if !errors.Is(err, ErrCycleWouldForm) {
		t.Fatalf("expected ErrCycleWouldForm, got %v", err)
	}
}

func TestUpdateMemberSharedAncestorAllowed(t *testing.T) {
	repo := newFakeMemberRepo()
	ancestor := repo.add(Member{Name: "Olga", LastName: "Ivanova", Gender: GenderFemale})
	mother := repo.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale, MotherID: int64Ptr(ancestor.ID)})
	father := repo.add(Member{Name: "Ivan", LastName: "Ivanov", Gender: GenderMale, MotherID: int64Ptr(ancestor.ID)})
	child := repo.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale, MotherID: int64Ptr(mother.ID)})
	svc := NewService(repo)

	// Both parent chains reach the same ancestor; that is not a cycle.
	updated, err := svc.Update(context.Background(), child.ID, UpdateInput{FatherID: int64Ptr(father.ID)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.FatherID == nil || *updated.FatherID != father.ID {
		t.Fatalf("expected father set, got %+v", updated.FatherID)
	}
}

func TestDeleteMemberClearsChildLinks(t *testing.T) {
	repo := newFakeMemberRepo()
	father := repo.add(Member{Name: "Ivan", LastName: "Ivanov", Gender: GenderMale})
	child := repo.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale, FatherID: int64Ptr(father.ID)})
	svc := NewService(repo)

	if err := svc.Delete(context.Background(), father.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.members[father.ID]; ok {
		t.Fatalf("expected father removed")
	}
	stored := repo.members[child.ID]
	if stored == nil {
		t.Fatalf("expected child to survive")
	}
	if stored.FatherID != nil {
		t.Fatalf("expected father link cleared, got %v", *stored.FatherID)
	}
}

func TestDeleteMemberNotFound(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewService(repo)

	if err := svc.Delete(context.Background(), 404); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestListMembersPaging(t *testing.T) {
	repo := newFakeMemberRepo()
	repo.add(Member{Name: "Anna", LastName: "Ivanova", Gender: GenderFemale})
	repo.add(Member{Name: "Maria", LastName: "Ivanova", Gender: GenderFemale})
	repo.add(Member{Name: "Ivan", LastName: "Ivanov", Gender: GenderMale})
	svc := NewService(repo)

	items, err := svc.List(context.Background(), "", 1, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected the last page to hold 1 member, got %d", len(items))
	}

	items, err = svc.List(context.Background(), "ivanov", 0, 10)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(items))
	}
}
