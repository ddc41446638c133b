package invite

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"family-tree-go/internal/domain/member"
	"family-tree-go/internal/domain/user"
	"family-tree-go/internal/secretbox"
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultPerPage = 10
	qrSize         = 256
)

type Config struct {
	BaseURL string
	TTL     time.Duration
	// SecretKey seals TOTP seeds at rest. 32 bytes.
	SecretKey []byte
}

type Service struct {
	repo     Repository
	members  Members
	accounts Accounts
	mailer   Sender
	cfg      Config
	issuer   string
	now      func() time.Time
}

func NewService(repo Repository, members Members, accounts Accounts, mailer Sender, cfg Config) *Service {
	issuer := "family-tree"
	if parsed, err := url.Parse(cfg.BaseURL); err == nil && parsed.Host != "" {
		issuer = parsed.Host
	}

	return &Service{
		repo:     repo,
		members:  members,
		accounts: accounts,
		mailer:   mailer,
		cfg:      cfg,
		issuer:   issuer,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create issues a pending invite for the member and mails the invite link.
func (s *Service) Create(ctx context.Context, memberID int64, email string) (*Invite, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !govalidator.IsEmail(email) {
		return nil, ErrInvalidEmail
	}

	exists, err := s.members.Exists(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("invited member %d: %w", memberID, member.ErrMemberNotFound)
	}

	taken, err := s.accounts.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	now := s.now()
	result := Invite{
		ID:        uuid.NewString(),
		MemberID:  &memberID,
		Email:     email,
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	if err := s.repo.Create(ctx, &result); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/invite/%s", s.cfg.BaseURL, result.ID)
	if err := s.mailer.SendInvite(ctx, email, link); err != nil {
		return nil, fmt.Errorf("send invite mail: %w", err)
	}

	return &result, nil
}

func (s *Service) List(ctx context.Context, page, perPage int) ([]Invite, error) {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page < 0 {
		page = 0
	}
	return s.repo.List(ctx, page*perPage, perPage)
}

// Accept enrolls an authenticator for a pending invite: a fresh TOTP seed is
// generated, sealed onto the invite, and returned as a base64 PNG QR of the
// otpauth URL. Calling it again before verification reissues the seed.
func (s *Service) Accept(ctx context.Context, id string) (string, error) {
	var qr string
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		inv, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != StatusPending {
			return ErrInviteResolved
		}
		if s.now().After(inv.ExpiresAt) {
			return ErrInviteExpired
		}

		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      s.issuer,
			AccountName: inv.Email,
		})
		if err != nil {
			return fmt.Errorf("generate totp key: %w", err)
		}

		sealed, err := secretbox.Seal(s.cfg.SecretKey, []byte(key.Secret()))
		if err != nil {
			return err
		}
		if err := tx.SetTOTPSecret(ctx, id, sealed); err != nil {
			return err
		}

		png, err := qrcode.Encode(key.URL(), qrcode.Medium, qrSize)
		if err != nil {
			return fmt.Errorf("encode totp qr: %w", err)
		}
		qr = base64.StdEncoding.EncodeToString(png)
		return nil
	})
	if err != nil {
		return "", err
	}
	return qr, nil
}

// Verify confirms the TOTP code from the enrolled authenticator, accepts the
// invite, and provisions the member's user account: same sealed seed, named
// after the invited member.
func (s *Service) Verify(ctx context.Context, id, code string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		inv, err := tx.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != StatusPending {
			return ErrInviteResolved
		}
		if s.now().After(inv.ExpiresAt) {
			return ErrInviteExpired
		}
		if len(inv.TOTPSecret) == 0 {
			return ErrNotEnrolled
		}
		// The member link clears when the member is deleted; the invite is
		// then unusable.
		if inv.MemberID == nil {
			return fmt.Errorf("invited member was removed: %w", member.ErrMemberNotFound)
		}
		invited, err := s.members.GetByID(ctx, *inv.MemberID)
		if err != nil {
			return err
		}

		secret, err := secretbox.Open(s.cfg.SecretKey, inv.TOTPSecret)
		if err != nil {
			return err
		}
		if !totp.Validate(code, string(secret)) {
			return ErrInvalidTOTP
		}

		rows, err := tx.MarkResolved(ctx, id, StatusAccepted)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrInviteResolved
		}

		err = s.accounts.CreateMemberAccount(ctx, inv.Email, invited.Name, invited.LastName, inv.TOTPSecret)
		if err == nil {
			return nil
		}
		// The account commits on the user store's own connection, so a lost
		// status flip can leave it behind with the invite still pending. The
		// retried verification finds that account and converges instead of
		// failing on uniqueness.
		if errors.Is(err, user.ErrEmailTaken) || errors.Is(err, user.ErrUsernameTaken) {
			return nil
		}
		return err
	})
}

// Decline is terminal; a resolved invite cannot transition again.
func (s *Service) Decline(ctx context.Context, id string) error {
	rows, err := s.repo.MarkResolved(ctx, id, StatusDeclined)
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.repo.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrInviteResolved
	}
	return nil
}
