package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/AlphaIsYour/creanomic-sub002/internal/domain/entity"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
	"github.com/AlphaIsYour/creanomic-sub002/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateFromVerification(ctx context.Context, params repository.CreateUserParams, tokenID string) (*entity.User, error) {
	args := m.Called(ctx, params, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ReserveOfferSlot(ctx context.Context, userID string, max int) error {
	args := m.Called(ctx, userID, max)
	return args.Error(0)
}

func (m *MockUserRepository) ReleaseOfferSlot(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *entity.VerificationToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) FindByIdentifierAndToken(ctx context.Context, identifier, code string, tokenType entity.TokenType) (*entity.VerificationToken, error) {
	args := m.Called(ctx, identifier, code, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationToken), args.Error(1)
}

func (m *MockTokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenRepository) DeleteByIdentifier(ctx context.Context, identifier string, tokenType entity.TokenType) error {
	args := m.Called(ctx, identifier, tokenType)
	return args.Error(0)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject, bodyHTML, bodyText string) error {
	args := m.Called(ctx, to, subject, bodyHTML, bodyText)
	return args.Error(0)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(subject string, payload interface{}) error {
	args := m.Called(subject, payload)
	return args.Error(0)
}

func newRegistrationService(users *MockUserRepository, tokens *MockTokenRepository, sender *MockEmailSender, publisher *MockEventPublisher) RegistrationService {
	return NewRegistrationService(users, tokens, sender, publisher, nil, logger.NewNop(), 30*time.Minute, "test-secret", 24*time.Hour)
}

var sixDigitCode = regexp.MustCompile(`^\d{6}$`)

func TestRegistrationService_RequestCode_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"

	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockTokens.On("DeleteByIdentifier", mock.Anything, testEmail, entity.TokenTypeEmailVerification).Return(nil).Once()
	mockTokens.On("Create", mock.Anything, mock.MatchedBy(func(token *entity.VerificationToken) bool {
		return token.Identifier == testEmail &&
			token.Type == entity.TokenTypeEmailVerification &&
			sixDigitCode.MatchString(token.Token) &&
			time.Until(token.Expires) > 29*time.Minute
	})).Return(nil).Once()
	mockSender.On("Send", mock.Anything, []string{testEmail}, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.RequestCode(context.Background(), testEmail)

	assert.NoError(t, err)
	mockUsers.AssertExpectations(t)
	mockTokens.AssertExpectations(t)
	mockSender.AssertExpectations(t)
}

func TestRegistrationService_RequestCode_InvalidEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)

	for _, addr := range []string{"", "not-an-email", "budi@", "@example.com", "budi@example"} {
		err := svc.RequestCode(context.Background(), addr)
		assert.ErrorIs(t, err, ErrInvalidEmail, "address %q", addr)
	}

	mockUsers.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
	mockTokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegistrationService_RequestCode_EmailAlreadyRegistered(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(true, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.RequestCode(context.Background(), testEmail)

	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	mockTokens.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	mockSender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationService_RequestCode_SupersedesPreviousCode(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"

	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Twice()
	mockTokens.On("DeleteByIdentifier", mock.Anything, testEmail, entity.TokenTypeEmailVerification).Return(nil).Twice()
	mockTokens.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	mockSender.On("Send", mock.Anything, []string{testEmail}, mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)

	assert.NoError(t, svc.RequestCode(context.Background(), testEmail))
	assert.NoError(t, svc.RequestCode(context.Background(), testEmail))

	// The second request wipes any live code before persisting a new one.
	mockTokens.AssertNumberOfCalls(t, "DeleteByIdentifier", 2)
	mockTokens.AssertExpectations(t)
}

func TestRegistrationService_RequestCode_RetriesOnCodeCollision(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"

	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockTokens.On("DeleteByIdentifier", mock.Anything, testEmail, entity.TokenTypeEmailVerification).Return(nil).Once()
	mockTokens.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists).Once()
	mockTokens.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mockSender.On("Send", mock.Anything, []string{testEmail}, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.RequestCode(context.Background(), testEmail)

	assert.NoError(t, err)
	mockTokens.AssertNumberOfCalls(t, "Create", 2)
}

func TestRegistrationService_RequestCode_DeliveryFailureKeepsToken(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"

	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockTokens.On("DeleteByIdentifier", mock.Anything, testEmail, entity.TokenTypeEmailVerification).Return(nil).Once()
	mockTokens.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	mockSender.On("Send", mock.Anything, []string{testEmail}, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp connection refused")).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.RequestCode(context.Background(), testEmail)

	assert.ErrorIs(t, err, ErrDeliveryFailure)
	// The persisted token is left to expire; it must not be rolled back.
	mockTokens.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestRegistrationService_VerifyCode_Success_DoesNotConsume(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(10 * time.Minute),
	}
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.VerifyCode(context.Background(), testEmail, "123456")

	assert.NoError(t, err)
	// Verification is a read; the code stays live for the registration step.
	mockTokens.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestRegistrationService_VerifyCode_WrongCode(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "999999", entity.TokenTypeEmailVerification).
		Return(nil, repository.ErrNotFound).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.VerifyCode(context.Background(), testEmail, "999999")

	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestRegistrationService_VerifyCode_ExpiredCodeIsSwept(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(-time.Minute),
	}
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()
	mockTokens.On("DeleteByID", mock.Anything, "token1").Return(nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	err := svc.VerifyCode(context.Background(), testEmail, "123456")

	assert.ErrorIs(t, err, ErrCodeExpired)
	mockTokens.AssertExpectations(t)
}

func TestRegistrationService_VerifyCode_MissingFields(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)

	assert.ErrorIs(t, svc.VerifyCode(context.Background(), "", "123456"), ErrValidation)
	assert.ErrorIs(t, svc.VerifyCode(context.Background(), "budi@example.com", ""), ErrValidation)
	mockTokens.AssertNotCalled(t, "FindByIdentifierAndToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationService_CompleteRegistration_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(10 * time.Minute),
	}
	createdUser := &entity.User{
		ID:         "user1",
		Name:       "Budi",
		Email:      testEmail,
		Role:       entity.RoleUser,
		IsVerified: true,
	}

	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()
	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockUsers.On("CreateFromVerification", mock.Anything, mock.MatchedBy(func(params repository.CreateUserParams) bool {
		if params.Name != "Budi" || params.Email != testEmail || params.Role != entity.RoleUser {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(params.PasswordHash), []byte("rahasia-kuat")) == nil
	}), "token1").Return(createdUser, nil).Once()
	mockPublisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	user, err := svc.CompleteRegistration(context.Background(), CompleteRegistrationParams{
		Email:    testEmail,
		Code:     "123456",
		Name:     "Budi",
		Password: "rahasia-kuat",
	})

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "user1", user.ID)
	assert.True(t, user.IsVerified)
	mockUsers.AssertExpectations(t)
	mockTokens.AssertExpectations(t)
	mockPublisher.AssertExpectations(t)
}

func TestRegistrationService_CompleteRegistration_ShortPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(10 * time.Minute),
	}
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	user, err := svc.CompleteRegistration(context.Background(), CompleteRegistrationParams{
		Email:    testEmail,
		Code:     "123456",
		Name:     "Budi",
		Password: "pendek",
	})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, user)
	mockUsers.AssertNotCalled(t, "CreateFromVerification", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationService_CompleteRegistration_TokenConsumedConcurrently(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(10 * time.Minute),
	}
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()
	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockUsers.On("CreateFromVerification", mock.Anything, mock.Anything, "token1").Return(nil, repository.ErrNotFound).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	user, err := svc.CompleteRegistration(context.Background(), CompleteRegistrationParams{
		Email:    testEmail,
		Code:     "123456",
		Name:     "Budi",
		Password: "rahasia-kuat",
	})

	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Nil(t, user)
}

func TestRegistrationService_CompleteRegistration_EmailTakenAtCreate(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	token := &entity.VerificationToken{
		ID:         "token1",
		Identifier: testEmail,
		Token:      "123456",
		Type:       entity.TokenTypeEmailVerification,
		Expires:    time.Now().UTC().Add(10 * time.Minute),
	}
	mockTokens.On("FindByIdentifierAndToken", mock.Anything, testEmail, "123456", entity.TokenTypeEmailVerification).Return(token, nil).Once()
	mockUsers.On("ExistsByEmail", mock.Anything, testEmail).Return(false, nil).Once()
	mockUsers.On("CreateFromVerification", mock.Anything, mock.Anything, "token1").Return(nil, repository.ErrAlreadyExists).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	user, err := svc.CompleteRegistration(context.Background(), CompleteRegistrationParams{
		Email:    testEmail,
		Code:     "123456",
		Name:     "Budi",
		Password: "rahasia-kuat",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	assert.Nil(t, user)
}

func TestRegistrationService_Login_Success(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	testEmail := "budi@example.com"
	hash, errHash := bcrypt.GenerateFromPassword([]byte("rahasia-kuat"), bcrypt.DefaultCost)
	assert.NoError(t, errHash)

	user := &entity.User{
		ID:         "user1",
		Email:      testEmail,
		Password:   string(hash),
		Role:       entity.RoleUser,
		IsVerified: true,
	}
	mockUsers.On("GetByEmail", mock.Anything, testEmail).Return(user, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	tokenString, loggedIn, err := svc.Login(context.Background(), testEmail, "rahasia-kuat")

	assert.NoError(t, err)
	assert.Equal(t, "user1", loggedIn.ID)

	parsed, errParse := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.NoError(t, errParse)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	assert.Equal(t, "user1", claims["sub"])
	assert.Equal(t, string(entity.RoleUser), claims["role"])
}

func TestRegistrationService_Login_WrongPassword(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia-kuat"), bcrypt.DefaultCost)
	user := &entity.User{ID: "user1", Email: "budi@example.com", Password: string(hash), IsVerified: true}
	mockUsers.On("GetByEmail", mock.Anything, "budi@example.com").Return(user, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	_, _, err := svc.Login(context.Background(), "budi@example.com", "salah-total")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegistrationService_Login_UnknownEmail(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	mockUsers.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, repository.ErrNotFound).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "rahasia-kuat")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegistrationService_Login_NotVerified(t *testing.T) {
	mockUsers := new(MockUserRepository)
	mockTokens := new(MockTokenRepository)
	mockSender := new(MockEmailSender)
	mockPublisher := new(MockEventPublisher)

	hash, _ := bcrypt.GenerateFromPassword([]byte("rahasia-kuat"), bcrypt.DefaultCost)
	user := &entity.User{ID: "user1", Email: "budi@example.com", Password: string(hash), IsVerified: false}
	mockUsers.On("GetByEmail", mock.Anything, "budi@example.com").Return(user, nil).Once()

	svc := newRegistrationService(mockUsers, mockTokens, mockSender, mockPublisher)
	_, _, err := svc.Login(context.Background(), "budi@example.com", "rahasia-kuat")

	assert.ErrorIs(t, err, ErrNotVerified)
}
