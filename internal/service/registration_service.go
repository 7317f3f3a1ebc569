package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/adapter/email"
	natsadapter "github.com/AlphaIsYour/creanomic-sub002/internal/adapter/nats"
	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/metrics"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	codeIssueAttempts = 3
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// EventPublisher is the outbound event hook; the NATS adapter satisfies it.
type EventPublisher interface {
	Publish(subject string, payload interface{}) error
}

type CompleteRegistrationParams struct {
	Email    string
	Code     string
	Name     string
	Password string
}

type RegistrationService interface {
	// RequestCode issues a fresh 6-digit verification code for the email,
	// superseding any live code, and dispatches it via SMTP.
	RequestCode(ctx context.Context, emailAddr string) error
	// VerifyCode checks the code without consuming it, so the registration
	// form can be gated on a verified code before submission.
	VerifyCode(ctx context.Context, emailAddr, code string) error
	// CompleteRegistration re-validates the code, creates the account and
	// consumes the token atomically.
	CompleteRegistration(ctx context.Context, params CompleteRegistrationParams) (*entity.User, error)
	Login(ctx context.Context, emailAddr, password string) (string, *entity.User, error)
	GetProfile(ctx context.Context, userID string) (*entity.User, error)
}

type registrationService struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	sender    email.EmailSender
	publisher EventPublisher
	metrics   *metrics.MetricsManager
	log       logger.Logger
	otpTTL    time.Duration
	jwtSecret string
	jwtTTL    time.Duration
}

func NewRegistrationService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	sender email.EmailSender,
	publisher EventPublisher,
	m *metrics.MetricsManager,
	log logger.Logger,
	otpTTL time.Duration,
	jwtSecret string,
	jwtTTL time.Duration,
) RegistrationService {
	return &registrationService{
		users:     users,
		tokens:    tokens,
		sender:    sender,
		publisher: publisher,
		metrics:   m,
		log:       log,
		otpTTL:    otpTTL,
		jwtSecret: jwtSecret,
		jwtTTL:    jwtTTL,
	}
}

func (s *registrationService) RequestCode(ctx context.Context, emailAddr string) error {
	if !emailPattern.MatchString(emailAddr) {
		return ErrInvalidEmail
	}

	exists, err := s.users.ExistsByEmail(ctx, emailAddr)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return ErrEmailAlreadyRegistered
	}

	// Supersede any live code for this address before issuing a new one.
	if err := s.tokens.DeleteByIdentifier(ctx, emailAddr, entity.TokenTypeEmailVerification); err != nil {
		return fmt.Errorf("failed to supersede existing tokens: %w", err)
	}

	var token *entity.VerificationToken
	for attempt := 0; attempt < codeIssueAttempts; attempt++ {
		code, errGen := generateCode()
		if errGen != nil {
			return fmt.Errorf("failed to generate verification code: %w", errGen)
		}
		token = &entity.VerificationToken{
			Identifier: emailAddr,
			Token:      code,
			Type:       entity.TokenTypeEmailVerification,
			Expires:    time.Now().UTC().Add(s.otpTTL),
		}
		errCreate := s.tokens.Create(ctx, token)
		if errCreate == nil {
			break
		}
		if errors.Is(errCreate, repository.ErrAlreadyExists) {
			// Code collision with an in-flight request for another address;
			// draw a new code.
			token = nil
			continue
		}
		return fmt.Errorf("failed to persist verification code: %w", errCreate)
	}
	if token == nil {
		return fmt.Errorf("failed to persist verification code after %d attempts", codeIssueAttempts)
	}

	subject := "Kode Verifikasi Daurin"
	bodyText := fmt.Sprintf("Kode verifikasi Anda adalah %s. Kode berlaku selama %d menit.", token.Token, int(s.otpTTL.Minutes()))
	bodyHTML := fmt.Sprintf("<p>Kode verifikasi Anda adalah <b>%s</b>.</p><p>Kode berlaku selama %d menit.</p>", token.Token, int(s.otpTTL.Minutes()))

	if err := s.sender.Send(ctx, []string{emailAddr}, subject, bodyHTML, bodyText); err != nil {
		// The token row stays behind; it expires naturally or is superseded
		// by the caller's retry. The caller still has to learn about the
		// failure.
		s.log.Errorf("RegistrationService.RequestCode: email delivery failed for %s: %v", emailAddr, err)
		return ErrDeliveryFailure
	}

	if s.metrics != nil {
		s.metrics.OTPCodesIssuedTotal.Inc()
	}
	s.log.Infof("RegistrationService.RequestCode: verification code issued for %s", emailAddr)
	return nil
}

func (s *registrationService) VerifyCode(ctx context.Context, emailAddr, code string) error {
	_, err := s.lookupToken(ctx, emailAddr, code)
	return err
}

func (s *registrationService) CompleteRegistration(ctx context.Context, params CompleteRegistrationParams) (*entity.User, error) {
	token, err := s.lookupToken(ctx, params.Email, params.Code)
	if err != nil {
		return nil, err
	}

	if params.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(params.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	exists, err := s.users.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateFromVerification(ctx, repository.CreateUserParams{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         entity.RoleUser,
	}, token.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrEmailAlreadyRegistered
		}
		if errors.Is(err, repository.ErrNotFound) {
			// Token was consumed by a concurrent registration attempt.
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	if s.publisher != nil {
		if errPub := s.publisher.Publish(natsadapter.SubjectUserRegistered, map[string]string{
			"user_id": user.ID,
			"email":   user.Email,
		}); errPub != nil {
			s.log.Warnf("RegistrationService.CompleteRegistration: failed to publish event: %v", errPub)
		}
	}

	s.log.Infof("RegistrationService.CompleteRegistration: user %s registered", user.ID)
	return user, nil
}

func (s *registrationService) Login(ctx context.Context, emailAddr, password string) (string, *entity.User, error) {
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return "", nil, ErrNotVerified
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.jwtTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, user, nil
}

func (s *registrationService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return user, nil
}

// lookupToken finds the token by its compound key and sweeps it when expired.
// A wrong code and a missing code map to the same error.
func (s *registrationService) lookupToken(ctx context.Context, emailAddr, code string) (*entity.VerificationToken, error) {
	if emailAddr == "" || code == "" {
		return nil, fmt.Errorf("%w: email and code are required", ErrValidation)
	}

	token, err := s.tokens.FindByIdentifierAndToken(ctx, emailAddr, code, entity.TokenTypeEmailVerification)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to look up verification token: %w", err)
	}

	if token.ExpiredAt(time.Now().UTC()) {
		if errDel := s.tokens.DeleteByID(ctx, token.ID); errDel != nil && !errors.Is(errDel, repository.ErrNotFound) {
			s.log.Warnf("RegistrationService: failed to sweep expired token for %s: %v", emailAddr, errDel)
		}
		return nil, ErrCodeExpired
	}

	return token, nil
}

// generateCode draws a 6-digit code uniformly from [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
