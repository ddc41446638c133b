package invite

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"family-tree-go/internal/domain/member"
	"family-tree-go/internal/domain/user"
	"family-tree-go/internal/secretbox"
	"github.com/pquerna/otp/totp"
)

var testKey = bytes.Repeat([]byte{0x42}, 32)

type fakeInviteRepo struct {
	invites map[string]*Invite
}

func newFakeInviteRepo() *fakeInviteRepo {
	return &fakeInviteRepo{invites: make(map[string]*Invite)}
}

func (r *fakeInviteRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeInviteRepo) Create(ctx context.Context, inv *Invite) error {
	stored := *inv
	r.invites[inv.ID] = &stored
	return nil
}

func (r *fakeInviteRepo) GetByID(ctx context.Context, id string) (*Invite, error) {
	inv, ok := r.invites[id]
	if !ok {
		return nil, ErrInviteNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInviteRepo) List(ctx context.Context, offset, limit int) ([]Invite, error) {
	items := make([]Invite, 0, len(r.invites))
	for _, inv := range r.invites {
		items = append(items, *inv)
	}
	return items, nil
}

func (r *fakeInviteRepo) SetTOTPSecret(ctx context.Context, id string, secret []byte) error {
	inv, ok := r.invites[id]
	if !ok {
		return ErrInviteNotFound
	}
	inv.TOTPSecret = secret
	return nil
}

func (r *fakeInviteRepo) MarkResolved(ctx context.Context, id, status string) (int64, error) {
	inv, ok := r.invites[id]
	if !ok || inv.Status != StatusPending {
		return 0, nil
	}
	inv.Status = status
	return 1, nil
}

type fakeMembers struct {
	members map[int64]*member.Member
}

func (m *fakeMembers) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := m.members[id]
	return ok, nil
}

func (m *fakeMembers) GetByID(ctx context.Context, id int64) (*member.Member, error) {
	found, ok := m.members[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	copied := *found
	return &copied, nil
}

type fakeAccounts struct {
	taken     map[string]bool
	created   []string
	firstName string
	lastName  string
	secret    []byte
	createErr error
}

func (a *fakeAccounts) EmailTaken(ctx context.Context, email string) (bool, error) {
	return a.taken[email], nil
}

func (a *fakeAccounts) CreateMemberAccount(ctx context.Context, email, firstName, lastName string, totpSecret []byte) error {
	if a.createErr != nil {
		return a.createErr
	}
	a.created = append(a.created, email)
	a.firstName = firstName
	a.lastName = lastName
	a.secret = totpSecret
	return nil
}

type fakeSender struct {
	to   []string
	link string
}

func (s *fakeSender) SendInvite(ctx context.Context, toEmail, link string) error {
	s.to = append(s.to, toEmail)
	s.link = link
	return nil
}

func newTestService(repo *fakeInviteRepo, accounts *fakeAccounts, sender *fakeSender) *Service {
	members := &fakeMembers{members: map[int64]*member.Member{
		1: {ID: 1, Name: "Maria", LastName: "Ivanova", Gender: member.GenderFemale},
	}}
	return NewService(repo, members, accounts, sender, Config{
		BaseURL:   "https://tree.example.com",
		TTL:       24 * time.Hour,
		SecretKey: testKey,
	})
}

func TestCreateInviteSendsLink(t *testing.T) {
	repo := newFakeInviteRepo()
	sender := &fakeSender{}
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, sender)

	created, err := svc.Create(context.Background(), 1, "Guest@Example.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Email != "guest@example.com" {
		t.Fatalf("expected lowercased email, got %q", created.Email)
	}
	if created.Status != StatusPending {
		t.Fatalf("expected pending, got %q", created.Status)
	}
	if got, want := created.ExpiresAt.Sub(created.CreatedAt), 24*time.Hour; got != want {
		t.Fatalf("expected ttl %v, got %v", want, got)
	}
	wantLink := "https://tree.example.com/invite/" + created.ID
	if sender.link != wantLink {
		t.Fatalf("expected link %q, got %q", wantLink, sender.link)
	}
}

func TestCreateInviteInvalidEmail(t *testing.T) {
	svc := newTestService(newFakeInviteRepo(), &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	_, err := svc.Create(context.Background(), 1, "not-an-email")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestCreateInviteMemberNotFound(t *testing.T) {
	svc := newTestService(newFakeInviteRepo(), &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	_, err := svc.Create(context.Background(), 404, "guest@example.com")
	if !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestCreateInviteEmailTaken(t *testing.T) {
	svc := newTestService(newFakeInviteRepo(), &fakeAccounts{taken: map[string]bool{"guest@example.com": true}}, &fakeSender{})

	_, err := svc.Create(context.Background(), 1, "guest@example.com")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAcceptEnrollsAuthenticator(t *testing.T) {
	repo := newFakeInviteRepo()
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	qr, err := svc.Accept(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(qr); err != nil || qr == "" {
		t.Fatalf("expected base64 qr, got %v", err)
	}

	sealed := repo.invites[created.ID].TOTPSecret
	if len(sealed) == 0 {
		t.Fatalf("expected sealed secret stored")
	}
	if _, err := secretbox.Open(testKey, sealed); err != nil {
		t.Fatalf("stored secret does not open: %v", err)
	}
}

func TestAcceptExpired(t *testing.T) {
	repo := newFakeInviteRepo()
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	svc.now = func() time.Time { return created.ExpiresAt.Add(time.Minute) }
	if _, err := svc.Accept(context.Background(), created.ID); !errors.Is(err, ErrInviteExpired) {
		t.Fatalf("expected ErrInviteExpired, got %v", err)
	}
}

func TestVerifyWithoutEnrollment(t *testing.T) {
	repo := newFakeInviteRepo()
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Verify(context.Background(), created.ID, "123456"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
}

func TestVerifyCreatesAccount(t *testing.T) {
	repo := newFakeInviteRepo()
	accounts := &fakeAccounts{taken: map[string]bool{}}
	svc := newTestService(repo, accounts, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), created.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	sealed := repo.invites[created.ID].TOTPSecret
	secret, err := secretbox.Open(testKey, sealed)
	if err != nil {
		t.Fatalf("open secret: %v", err)
	}
	code, err := totp.GenerateCode(string(secret), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	if err := svc.Verify(context.Background(), created.ID, code); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.invites[created.ID].Status != StatusAccepted {
		t.Fatalf("expected accepted, got %q", repo.invites[created.ID].Status)
	}
	if len(accounts.created) != 1 || accounts.created[0] != "guest@example.com" {
		t.Fatalf("expected provisioned account, got %+v", accounts.created)
	}
	if accounts.firstName != "Maria" || accounts.lastName != "Ivanova" {
		t.Fatalf("expected member name carried to the account, got %q %q", accounts.firstName, accounts.lastName)
	}
	if !bytes.Equal(accounts.secret, sealed) {
		t.Fatalf("expected sealed seed carried to the account unchanged")
	}
}

func TestVerifyInvitedMemberRemoved(t *testing.T) {
	repo := newFakeInviteRepo()
	accounts := &fakeAccounts{taken: map[string]bool{}}
	svc := newTestService(repo, accounts, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), created.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// The schema nulls the link when the member is deleted.
	repo.invites[created.ID].MemberID = nil

	sealed := repo.invites[created.ID].TOTPSecret
	secret, err := secretbox.Open(testKey, sealed)
	if err != nil {
		t.Fatalf("open secret: %v", err)
	}
	code, err := totp.GenerateCode(string(secret), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	if err := svc.Verify(context.Background(), created.ID, code); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if repo.invites[created.ID].Status != StatusPending {
		t.Fatalf("expected invite to stay pending")
	}
	if len(accounts.created) != 0 {
		t.Fatalf("expected no account, got %+v", accounts.created)
	}
}

func TestVerifyRetryAfterProvisionedAccount(t *testing.T) {
	repo := newFakeInviteRepo()
	accounts := &fakeAccounts{taken: map[string]bool{}, createErr: user.ErrEmailTaken}
	svc := newTestService(repo, accounts, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), created.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	sealed := repo.invites[created.ID].TOTPSecret
	secret, err := secretbox.Open(testKey, sealed)
	if err != nil {
		t.Fatalf("open secret: %v", err)
	}
	code, err := totp.GenerateCode(string(secret), time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}

	// The account survived an earlier verification whose status flip was
	// lost; the retry converges instead of dying on uniqueness.
	if err := svc.Verify(context.Background(), created.ID, code); err != nil {
		t.Fatalf("expected retry to converge, got %v", err)
	}
	if repo.invites[created.ID].Status != StatusAccepted {
		t.Fatalf("expected accepted, got %q", repo.invites[created.ID].Status)
	}
}

func TestVerifyWrongCode(t *testing.T) {
	repo := newFakeInviteRepo()
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Accept(context.Background(), created.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := svc.Verify(context.Background(), created.ID, "000000"); !errors.Is(err, ErrInvalidTOTP) {
		t.Fatalf("expected ErrInvalidTOTP, got %v", err)
	}
	if repo.invites[created.ID].Status != StatusPending {
		t.Fatalf("expected invite to stay pending")
	}
}

func TestDeclineIsTerminal(t *testing.T) {
	repo := newFakeInviteRepo()
	svc := newTestService(repo, &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	created, err := svc.Create(context.Background(), 1, "guest@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Decline(context.Background(), created.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.invites[created.ID].Status != StatusDeclined {
		t.Fatalf("expected declined, got %q", repo.invites[created.ID].Status)
	}

	if err := svc.Decline(context.Background(), created.ID); !errors.Is(err, ErrInviteResolved) {
		t.Fatalf("expected ErrInviteResolved, got %v", err)
	}
	if _, err := svc.Accept(context.Background(), created.ID); !errors.Is(err, ErrInviteResolved) {
		t.Fatalf("expected ErrInviteResolved on accept, got %v", err)
	}
}

func TestDeclineNotFound(t *testing.T) {
	svc := newTestService(newFakeInviteRepo(), &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})

	if err := svc.Decline(context.Background(), "missing"); !errors.Is(err, ErrInviteNotFound) {
		t.Fatalf("expected ErrInviteNotFound, got %v", err)
	}
}

func TestIssuerFromBaseURL(t *testing.T) {
	svc := newTestService(newFakeInviteRepo(), &fakeAccounts{taken: map[string]bool{}}, &fakeSender{})
	if !strings.Contains(svc.issuer, "tree.example.com") {
		t.Fatalf("expected issuer from base url host, got %q", svc.issuer)
	}
}
