package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/mail"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/token"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/validator"
	"github.com/ovaphlow/pitchfork/service-taskbite/pkg/utilities"
)

// Store is the credential store. Lookups return an apperr.ErrNotFound error
// when nothing matches; Create and Update return apperr.ErrConflict when the
// username or email is taken.
type Store interface {
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id string) error
}

type Mailer interface {
	Send(ctx context.Context, to, templateName string, data any) error
}

// EventRecorder counts auth workflow outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type Options struct {
	// BaseURL is the public origin used to build verification links.
	BaseURL              string
	AccessTokenTTL       time.Duration
	VerificationTokenTTL time.Duration
	PasswordResetTTL     time.Duration
}

// UserService orchestrates authentication and user lifecycle flows.
type UserService struct {
	store  Store
	hasher PasswordHasher
	tokens *token.Service
	mailer Mailer
	events EventRecorder
	opts   Options
	logger *zap.SugaredLogger
	now    func() time.Time

	dummyOnce sync.Once
	dummy     string
}

func NewUserService(store Store, hasher PasswordHasher, tokens *token.Service, mailer Mailer, opts Options, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = 30 * time.Minute
	}
	if opts.VerificationTokenTTL <= 0 {
		opts.VerificationTokenTTL = time.Hour
	}
	if opts.PasswordResetTTL <= 0 {
		opts.PasswordResetTTL = time.Hour
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &UserService{store: store, hasher: hasher, tokens: tokens, mailer: mailer, opts: opts, logger: logger, now: time.Now}
}

// WithEvents attaches an outcome recorder.
func (s *UserService) WithEvents(r EventRecorder) *UserService {
	s.events = r
	return s
}

// dummyHash is compared against on unknown emails so a failed login costs
// the same whether or not the account exists.
func (s *UserService) dummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("taskbite-dummy-password")
		if err != nil {
			s.logger.Warnw("dummy password hash", "error", err)
			return
		}
		s.dummy = h
	})
	return s.dummy
}

func (s *UserService) record(event string, err error) {
	if s.events == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	s.events.AuthEvent(event, outcome)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeErr passes classified store errors through and wraps anything else as a dependency failure.
func storeErr(err error, op string) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Dependency(op, err)
}

type RegisterInput struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Register creates an unverified account and mails a verification link. When
// the mail cannot be sent the account stays committed and both the user and a
// dependency error are returned.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (u *entity.User, err error) {
	defer func() { s.record("register", err) }()

	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	v := validator.New()
	v.Username(in.Username)
	v.Required(in.Name, "name")
	v.MaxLength(in.Name, 30, "name")
	v.Email(in.Email)
	v.Password(in.Password)
	if err := v.Err("Invalid registration data"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "Failed to hash password", err)
	}
	now := s.now().UTC()
	u = &entity.User{
		ID:           utilities.NewKSUID(),
		Username:     in.Username,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, storeErr(err, "Failed to create user")
	}
	s.logger.Infow("user registered", "user_id", u.ID)

	if err := s.sendVerification(ctx, u); err != nil {
		return u, err
	}
	return u, nil
}

func (s *UserService) sendVerification(ctx context.Context, u *entity.User) error {
	tok, err := s.tokens.Issue(u.ID, token.PurposeEmailConfirm, s.opts.VerificationTokenTTL)
	if err != nil {
		return apperr.Wrap(apperr.ErrDependency, "could not issue verification token", err)
	}
	data := mail.LinkData{
		Name:      u.Name,
		Token:     tok,
		Link:      s.opts.BaseURL + "/api/v1/auth/verify/" + tok,
		ExpiresIn: humanize(s.opts.VerificationTokenTTL),
	}
	if err := s.mailer.Send(ctx, u.Email, mail.TemplateVerifyEmail, data); err != nil {
		s.logger.Errorw("verification mail failed", "user_id", u.ID, "err", err)
		return apperr.Wrap(apperr.ErrDependency, "Account created but the verification email could not be sent; request a new one", err)
	}
	return nil
}

// ResendVerification mails a fresh verification link to an unverified account.
func (s *UserService) ResendVerification(ctx context.Context, email string) (err error) {
	defer func() { s.record("resend_verification", err) }()

	email = normalizeEmail(email)
	v := validator.New()
	v.Email(email)
	if err := v.Err("Invalid email address"); err != nil {
		return err
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Email not found")
		}
		return storeErr(err, "load user")
	}
	if u.EmailVerified {
		return apperr.New(apperr.ErrValidation, "Email already verified")
	}
	return s.sendVerification(ctx, u)
}

type VerifyOutcome int

const (
	Verified VerifyOutcome = iota
	AlreadyVerified
)

func (o VerifyOutcome) String() string {
	if o == AlreadyVerified {
		return "Email already verified"
	}
	return "Email verified successfully"
}

// VerifyEmail marks the token's subject as verified. Verifying twice is not an error.
func (s *UserService) VerifyEmail(ctx context.Context, raw string) (out VerifyOutcome, err error) {
	defer func() { s.record("verify_email", err) }()

	userID, err := s.tokens.Validate(raw, token.PurposeEmailConfirm, s.opts.VerificationTokenTTL)
	if err != nil {
		return 0, err
	}
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return 0, apperr.Wrap(apperr.ErrInvalidToken, "invalid token", err)
		}
		return 0, storeErr(err, "load user")
	}
	if u.EmailVerified {
		return AlreadyVerified, nil
	}
	u.EmailVerified = true
	u.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return 0, storeErr(err, "update user")
	}
	return Verified, nil
}

type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *entity.User
}

// Login checks the credentials and the verified flag and issues an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (res *LoginResult, err error) {
	defer func() { s.record("login", err) }()

	email = normalizeEmail(email)
	v := validator.New()
	v.Required(email, "email")
	v.Required(password, "password")
	v.Check(email == "" || validator.EmailRX.MatchString(email), "email", "must be a valid email address")
	if err := v.Err("Missing required fields"); err != nil {
		return nil, err
	}

	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.hasher.Verify(s.dummyHash(), password)
			return nil, apperr.New(apperr.ErrAuthentication, "invalid credentials")
		}
		return nil, storeErr(err, "load user")
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, apperr.New(apperr.ErrAuthentication, "invalid credentials")
	}
	if !u.EmailVerified {
		return nil, apperr.New(apperr.ErrAuthentication, "email not verified")
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		if hash, hErr := s.hasher.Hash(password); hErr == nil {
			u.PasswordHash = hash
			u.UpdatedAt = s.now().UTC()
			if uErr := s.store.Update(ctx, u); uErr != nil {
				s.logger.Warnw("password rehash not persisted", "user_id", u.ID, "err", uErr)
			}
		}
	}

	tok, err := s.tokens.Issue(u.ID, token.PurposeAccess, s.opts.AccessTokenTTL)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrDependency, "could not issue access token", err)
	}
	return &LoginResult{AccessToken: tok, ExpiresAt: s.now().Add(s.opts.AccessTokenTTL), User: u}, nil
}

// Logout is stateless; the access token stays valid until it expires.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	s.logger.Debugw("user logged out", "user_id", userID)
	s.record("logout", nil)
	return nil
}

// ForgotPassword mails a password reset link to the account owning email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.record("forgot_password", err) }()

	email = normalizeEmail(email)
	v := validator.New()
	v.Email(email)
	if err := v.Err("Invalid email address"); err != nil {
		return err
	}
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrNotFound, "Email not found")
		}
		return storeErr(err, "load user")
	}
	tok, err := s.tokens.Issue(u.ID, token.PurposePasswordReset, s.opts.PasswordResetTTL)
	if err != nil {
		return apperr.Wrap(apperr.ErrDependency, "could not issue reset token", err)
	}
	data := mail.LinkData{
		Name:      u.Name,
		Token:     tok,
		Link:      s.opts.BaseURL + "/reset-password?token=" + tok,
		ExpiresIn: humanize(s.opts.PasswordResetTTL),
	}
	if err := s.mailer.Send(ctx, u.Email, mail.TemplatePasswordReset, data); err != nil {
		s.logger.Errorw("password reset mail failed", "user_id", u.ID, "err", err)
		return apperr.Wrap(apperr.ErrDependency, "Error sending password reset email", err)
	}
	return nil
}

// ResetPassword stores a new password for the subject of a reset token.
// Previously issued access tokens are not revoked.
func (s *UserService) ResetPassword(ctx context.Context, raw, password string) (err error) {
	defer func() { s.record("reset_password", err) }()

	v := validator.New()
	v.Required(raw, "token")
	v.Password(password)
	if err := v.Err("Missing required fields"); err != nil {
		return err
	}
	userID, err := s.tokens.Validate(raw, token.PurposePasswordReset, s.opts.PasswordResetTTL)
	if err != nil {
		return err
	}
	u, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return storeErr(err, "load user")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return apperr.Wrap(apperr.ErrDependency, "Failed to hash password", err)
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return storeErr(err, "update user")
	}
	return nil
}

// ProfileUpdate holds the optional fields of a profile update; nil means unchanged.
type ProfileUpdate struct {
	Username *string `json:"username"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateProfile applies the provided fields to the acting user's own account.
func (s *UserService) UpdateProfile(ctx context.Context, actingID, targetID string, in ProfileUpdate) (*entity.User, error) {
	if actingID == "" || actingID != targetID {
		return nil, apperr.New(apperr.ErrAuthorization, "Unauthorized")
	}
	u, err := s.store.GetByID(ctx, targetID)
	if err != nil {
		return nil, storeErr(err, "load user")
	}

	v := validator.New()
	if in.Username != nil {
		*in.Username = strings.TrimSpace(*in.Username)
		v.Username(*in.Username)
	}
	if in.Name != nil {
		*in.Name = strings.TrimSpace(*in.Name)
		v.Required(*in.Name, "name")
		v.MaxLength(*in.Name, 30, "name")
	}
	if in.Email != nil {
		*in.Email = normalizeEmail(*in.Email)
		v.Email(*in.Email)
	}
	if in.Password != nil {
		v.Password(*in.Password)
	}
	if err := v.Err("Invalid profile data"); err != nil {
		return nil, err
	}

	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrDependency, "Failed to hash password", err)
		}
		u.PasswordHash = hash
	}
	u.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, u); err != nil {
		return nil, storeErr(err, "update user")
	}
	return u, nil
}

// DeleteAccount removes the acting user's own account and everything it owns.
func (s *UserService) DeleteAccount(ctx context.Context, actingID, targetID string) (err error) {
	defer func() { s.record("delete_account", err) }()

	if actingID == "" || actingID != targetID {
		return apperr.New(apperr.ErrAuthorization, "Unauthorized")
	}
	if err := s.store.Delete(ctx, targetID); err != nil {
		return storeErr(err, "delete user")
	}
	s.logger.Infow("user deleted", "user_id", targetID)
	return nil
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "load user")
	}
	return u, nil
}

func humanize(d time.Duration) string {
	if d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
