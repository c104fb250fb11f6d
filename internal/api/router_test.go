package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/api"
	"github.com/phrazzld/taskmanager-api/internal/api/shared"
	"github.com/phrazzld/taskmanager-api/internal/config"
	"github.com/phrazzld/taskmanager-api/internal/mocks"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const tokenPrefix = "token-"

// testServer is the full router over in-memory stores. Tokens are
// "token-<user id>".
type testServer struct {
	handler http.Handler
	tasks   *mocks.MockTaskStore
	users   *mocks.MockUserStore
	jwt     *mocks.MockJWTService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	tasks := mocks.NewMockTaskStore()
	users := mocks.NewMockUserStore()
	jwt := &mocks.MockJWTService{
		GenerateTokenFn: func(_ context.Context, userID uuid.UUID) (string, error) {
			return tokenPrefix + userID.String(), nil
		},
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			id, err := uuid.Parse(strings.TrimPrefix(token, tokenPrefix))
			if err != nil || !strings.HasPrefix(token, tokenPrefix) {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id}, nil
		},
	}

	taskService, err := service.NewTaskService(tasks, log)
	require.NoError(t, err)
	verifier := &mocks.MockPasswordVerifier{
		CompareFn: func(hashed, password string) error {
			if hashed != "hashed:"+password {
				return mocks.ErrPasswordMismatch
			}
			return nil
		},
	}
	userService, err := service.NewUserService(users, &mocks.MockPasswordHasher{}, verifier, log)
	require.NoError(t, err)

	handler := api.NewRouter(api.RouterDeps{
		TaskService: taskService,
		UserService: userService,
		JWTService:  jwt,
		AuthConfig:  config.AuthConfig{TokenLifetimeMinutes: 60},
		Logger:      log,
	})
	return &testServer{handler: handler, tasks: tasks, users: users, jwt: jwt}
}

// do sends a request; token may be empty for public routes.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func tokenFor(userID uuid.UUID) string {
	return tokenPrefix + userID.String()
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "body: %s", rr.Body.String())
	return out
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[shared.ErrorResponse](t, rr).Error
}
