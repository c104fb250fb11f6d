package service_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/mocks"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPassword = "correct-horse-battery"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newUserService(t *testing.T, users store.UserStore, verifier *mocks.MockPasswordVerifier) service.UserService {
	t.Helper()
	svc, err := service.NewUserService(users, &mocks.MockPasswordHasher{}, verifier, quietLogger())
	require.NoError(t, err)
	return svc
}

func TestNewUserService_RequiresCollaborators(t *testing.T) {
	users := mocks.NewMockUserStore()
	hasher := &mocks.MockPasswordHasher{}
	verifier := &mocks.MockPasswordVerifier{}

	_, err := service.NewUserService(nil, hasher, verifier, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = service.NewUserService(users, nil, verifier, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = service.NewUserService(users, hasher, nil, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("stores normalized email and hashed password", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		svc := newUserService(t, users, &mocks.MockPasswordVerifier{})

		user, err := svc.Register(ctx, "  Alice@Example.COM ", validPassword)
		require.NoError(t, err)

		assert.Equal(t, "alice@example.com", user.Email)
		assert.Equal(t, "hashed:"+validPassword, user.HashedPassword)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Contains(t, users.Users, "alice@example.com")
	})

	t.Run("duplicate email", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		svc := newUserService(t, users, &mocks.MockPasswordVerifier{})

		_, err := svc.Register(ctx, "bob@example.com", validPassword)
		require.NoError(t, err)
		_, err = svc.Register(ctx, "BOB@example.com", validPassword)
		assert.ErrorIs(t, err, store.ErrEmailExists)
	})

	invalid := []struct {
		name     string
		email    string
		password string
		field    string
		cause    error
	}{
		{name: "empty email", email: "", password: validPassword, field: "email", cause: domain.ErrEmptyEmail},
		{name: "malformed email", email: "not-an-email", password: validPassword, field: "email", cause: domain.ErrInvalidEmail},
		{name: "short password", email: "a@example.com", password: "short", field: "password", cause: domain.ErrPasswordTooShort},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			users := mocks.NewMockUserStore()
			svc := newUserService(t, users, &mocks.MockPasswordVerifier{})

			_, err := svc.Register(ctx, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, tt.cause)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Empty(t, users.Users)
		})
	}

	t.Run("hash failure", func(t *testing.T) {
		hashErr := errors.New("hash failed")
		svc, err := service.NewUserService(
			mocks.NewMockUserStore(),
			&mocks.MockPasswordHasher{HashFn: func(string) (string, error) { return "", hashErr }},
			&mocks.MockPasswordVerifier{},
			quietLogger(),
		)
		require.NoError(t, err)

		_, err = svc.Register(ctx, "c@example.com", validPassword)
		assert.ErrorIs(t, err, hashErr)
	})
}

func TestUserService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}
		svc := newUserService(t, users, verifier)

		registered, err := svc.Register(ctx, "dana@example.com", validPassword)
		require.NoError(t, err)

		user, err := svc.Authenticate(ctx, "Dana@Example.com", validPassword)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
		assert.Equal(t, 1, verifier.CompareCallCount)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		svc := newUserService(t, users, &mocks.MockPasswordVerifier{ShouldSucceed: false})

		_, err := svc.Register(ctx, "erin@example.com", validPassword)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "erin@example.com", "wrong-password-123")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		verifier := &mocks.MockPasswordVerifier{ShouldSucceed: true}
		svc := newUserService(t, mocks.NewMockUserStore(), verifier)

		_, err := svc.Authenticate(ctx, "nobody@example.com", validPassword)
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
		assert.Equal(t, 0, verifier.CompareCallCount)
	})

	t.Run("store failure", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		users := &mocks.MockUserStore{
			GetByEmailFn: func(context.Context, string) (*domain.User, error) { return nil, dbErr },
		}
		svc := newUserService(t, users, &mocks.MockPasswordVerifier{ShouldSucceed: true})

		_, err := svc.Authenticate(ctx, "f@example.com", validPassword)
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestUserService_GetUser(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("found", func(t *testing.T) {
		users := mocks.NewMockUserStore()
		expected := &domain.User{ID: userID, Email: "g@example.com", HashedPassword: "h"}
		users.Users[expected.Email] = expected

		svc := newUserService(t, users, &mocks.MockPasswordVerifier{})
		user, err := svc.GetUser(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, expected, user)
	})

	t.Run("not found", func(t *testing.T) {
		var lookedUp uuid.UUID
		users := &mocks.MockUserStore{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
				lookedUp = id
				return nil, store.ErrUserNotFound
			},
		}

		svc := newUserService(t, users, &mocks.MockPasswordVerifier{})
		_, err := svc.GetUser(ctx, userID)

		assert.ErrorIs(t, err, store.ErrUserNotFound)
		assert.Equal(t, userID, lookedUp)
	})
}
