package services_test

import (
	"context"
	"testing"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/IANDYI/eldercare-service/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(repo *MockUserRepository, emitter *recordingEmitter) *services.AuthService {
	notifier := services.NewNotifier(repo, emitter, nil)
	return services.NewAuthService(repo, stubTokens{}, notifier, nil)
}

func TestAuthService_Signup_Success(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" && u.UserType == domain.RoleElder &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 10
	}).Return(nil)

	result, err := svc.Signup(context.Background(), ports.SignupRequest{
		Email: "Alice@Example.com", Password: "secret", FullName: "Alice", UserType: "elder",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-alice@example.com", result.AccessToken)
	assert.Equal(t, int64(10), result.User.ID)
	repo.AssertExpectations(t)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	cases := []ports.SignupRequest{
		{Password: "x", FullName: "A", UserType: "elder"},
		{Email: "a@x", FullName: "A", UserType: "elder"},
		{Email: "a@x", Password: "x", UserType: "elder"},
		{Email: "a@x", Password: "x", FullName: "A"},
		{Email: "a@x", Password: "x", FullName: "A", UserType: "admin"},
	}
	for _, req := range cases {
		_, err := svc.Signup(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
	repo.AssertNotCalled(t, "CreateUser")
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	repo.On("CreateUser", mock.Anything, mock.Anything).Return(domain.ErrConflict)

	result, err := svc.Signup(context.Background(), ports.SignupRequest{
		Email: "alice@example.com", Password: "secret", FullName: "Alice", UserType: "caretaker",
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestAuthService_Login_ElderProfile(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: 10, Email: "alice@example.com", PasswordHash: string(hash), UserType: domain.RoleElder}, nil)
	repo.On("GetElderProfileByUserID", mock.Anything, int64(10)).
		Return(&domain.ElderProfile{ID: 1, CaretakerID: int64Ptr(20), EmergencyContact: "555-0100"}, nil)

	result, err := svc.Login(context.Background(), "alice@example.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, int64Ptr(20), result.Profile["caretaker_id"])
	assert.Equal(t, "555-0100", result.Profile["emergency_contact"])
}

func TestAuthService_Login_CaretakerProfile(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByEmail", mock.Anything, "beth@example.com").
		Return(&domain.User{ID: 20, Email: "beth@example.com", PasswordHash: string(hash), UserType: domain.RoleCaretaker}, nil)
	repo.On("ListElderProfilesByCaretaker", mock.Anything, int64(20)).
		Return([]*domain.ElderProfile{{ID: 1, FullName: "Alice"}}, nil)

	result, err := svc.Login(context.Background(), "beth@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Profile["elder_count"])
	elders := result.Profile["elders"].([]map[string]any)
	assert.Equal(t, "Alice", elders[0]["name"])
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByEmail", mock.Anything, "alice@example.com").
		Return(&domain.User{ID: 10, PasswordHash: string(hash), UserType: domain.RoleElder}, nil)
	repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@example.com", "secret")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthService_LinkCaretaker_Success(t *testing.T) {
	repo := new(MockUserRepository)
	emitter := &recordingEmitter{}
	svc := newAuthService(repo, emitter)

	caller := lonelyElder()
	repo.On("GetCaretakerByEmail", mock.Anything, "beth@example.com").
		Return(&domain.User{ID: 20, Email: "beth@example.com", FullName: "Beth", UserType: domain.RoleCaretaker}, nil)
	repo.On("LinkCaretaker", mock.Anything, caller.ElderID, int64(20)).Return(nil)

	caretaker, err := svc.LinkCaretaker(context.Background(), caller, "beth@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Beth", caretaker.FullName)

	events := emitter.all()
	require.Len(t, events, 1)
	assert.Equal(t, int64(20), events[0].recipient)
	assert.Equal(t, domain.EventElderLinked, events[0].event.Name)
	assert.Equal(t, domain.ElderLinkedPayload{ElderID: 2, ElderName: "Bert"}, events[0].event.Data)
}

func TestAuthService_LinkCaretaker_NotElder(t *testing.T) {
	repo := new(MockUserRepository)
	svc := newAuthService(repo, &recordingEmitter{})

	_, err := svc.LinkCaretaker(context.Background(), caretakerB(), "beth@example.com")
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
	repo.AssertNotCalled(t, "LinkCaretaker")
}

func TestAuthService_LinkCaretaker_UnknownCaretaker(t *testing.T) {
	repo := new(MockUserRepository)
	emitter := &recordingEmitter{}
	svc := newAuthService(repo, emitter)

	repo.On("GetCaretakerByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	_, err := svc.LinkCaretaker(context.Background(), lonelyElder(), "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, emitter.all())
}
