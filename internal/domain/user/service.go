package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-tree-go/internal/secretbox"
	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type Config struct {
	SessionTTL time.Duration
	// SecretKey opens sealed TOTP seeds. Must match the invite service key.
	SecretKey []byte
}

type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

func NewService(repo Repository, cfg Config) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RegisterAdmin bootstraps the one admin account. It refuses to run once any
// admin exists; further accounts arrive through member invites.
func (s *Service) RegisterAdmin(ctx context.Context, input RegisterAdminInput) (*User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if !govalidator.IsEmail(input.Email) {
		return nil, fmt.Errorf("valid email is required")
	}
	if input.Password == "" {
		return nil, fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	password := string(hash)

	result := User{
		ID:       uuid.NewString(),
		Username: input.Username,
		Email:    input.Email,
		Password: &password,
		Role:     RoleAdmin,
	}
	if first := strings.TrimSpace(input.FirstName); first != "" {
		result.FirstName = &first
	}
	if last := strings.TrimSpace(input.LastName); last != "" {
		result.LastName = &last
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		admins, err := tx.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if admins > 0 {
			return ErrAdminExists
		}
		if err := requireUnique(ctx, tx, result.Username, result.Email, nil); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &result)
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// CreateMemberAccount provisions a TOTP-only account for an accepted invite.
// The username is the email, the name is the invited member's, and the
// sealed seed is carried over unchanged.
func (s *Service) CreateMemberAccount(ctx context.Context, email, firstName, lastName string, totpSecret []byte) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !govalidator.IsEmail(email) {
		return fmt.Errorf("valid email is required")
	}
	if len(totpSecret) == 0 {
		return ErrNotEnrolled
	}

	result := User{
		ID:         uuid.NewString(),
		Username:   email,
		Email:      email,
		TOTPSecret: totpSecret,
		Role:       RoleUser,
	}
	if first := strings.TrimSpace(firstName); first != "" {
		result.FirstName = &first
	}
	if last := strings.TrimSpace(lastName); last != "" {
		result.LastName = &last
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireUnique(ctx, tx, result.Username, result.Email, nil); err != nil {
			return err
		}
		return tx.CreateUser(ctx, &result)
	})
}

func (s *Service) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.repo.EmailExists(ctx, strings.TrimSpace(strings.ToLower(email)))
}

// PasswordLogin authenticates an admin by username or email.
func (s *Service) PasswordLogin(ctx context.Context, login, password string) (*Session, *User, error) {
	u, err := s.findByLogin(ctx, login)
	if err != nil {
		return nil, nil, err
	}

	if u.Password == nil {
		return nil, nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*u.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return session, u, nil
}

// TOTPLogin authenticates an invited member by their authenticator code.
func (s *Service) TOTPLogin(ctx context.Context, email, code string) (*Session, *User, error) {
	u, err := s.repo.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, nil, err
	}

	if len(u.TOTPSecret) == 0 {
		return nil, nil, ErrNotEnrolled
	}

	secret, err := secretbox.Open(s.cfg.SecretKey, u.TOTPSecret)
	if err != nil {
		return nil, nil, err
	}
	if !totp.Validate(code, string(secret)) {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.openSession(ctx, u)
	if err != nil {
		return nil, nil, err
	}
	return session, u, nil
}

// Authenticate resolves a session id to its user. Expired sessions are
// deleted on sight.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*User, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if s.now().After(session.ExpiresAt) {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	return s.repo.GetUserByID(ctx, session.UserID)
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.repo.DeleteSession(ctx, sessionID)
}

func (s *Service) openSession(ctx context.Context, u *User) (*Session, error) {
	now := s.now()
	session := Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionTTL),
	}

	if err := s.repo.CreateSession(ctx, &session); err != nil {
		return nil, err
	}
	if err := s.repo.SetLastLogin(ctx, u.ID, now); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Service) findByLogin(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if strings.Contains(login, "@") {
		return s.repo.GetUserByEmail(ctx, strings.ToLower(login))
	}
	u, err := s.repo.GetUserByUsername(ctx, login)
	if errors.Is(err, ErrUserNotFound) {
		return s.repo.GetUserByEmail(ctx, strings.ToLower(login))
	}
	return u, err
}

func requireUnique(ctx context.Context, repo Repository, username, email string, phone *string) error {
	usernameTaken, err := repo.UsernameExists(ctx, username)
	if err != nil {
		return err
	}
	if usernameTaken {
		return ErrUsernameTaken
	}

	emailTaken, err := repo.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if emailTaken {
		return ErrEmailTaken
	}

	if phone != nil {
		phoneTaken, err := repo.PhoneExists(ctx, *phone)
		if err != nil {
			return err
		}
		if phoneTaken {
			return ErrPhoneTaken
		}
	}

	return nil
}
