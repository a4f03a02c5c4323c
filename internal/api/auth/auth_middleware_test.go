package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/verisys/go-auth-starter/internal/api"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// identityProbe records what identity, if any, the gate attached.
type identityProbe struct {
	called bool
	userID uuid.UUID
	hasID  bool
	roles  []string
}

func (p *identityProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.userID, p.hasID = GetUserIDFromContext(r.Context())
		p.roles, _ = GetUserRolesFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_DegradesToAnonymous(t *testing.T) {
	tokens := newTestTokenService(t)

	cases := []struct {
		name  string
		setup func(t *testing.T, repo *MockAuthRepo) string // returns Authorization header
	}{
		{
			name: "no header",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				return ""
			},
		},
		{
			name: "non-bearer scheme",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				return "Basic dXNlcjpwdw=="
			},
		},
		{
			name: "blank bearer token",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				return "Bearer    "
			},
		},
		{
			name: "garbage token",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				return "Bearer not.a.token"
			},
		},
		{
			name: "refresh token in access position",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				signed, err := tokens.Issue(uuid.NewString(), TokenRefresh, 0, nil)
				require.NoError(t, err)
				return "Bearer " + signed
			},
		},
		{
			name: "non-uuid subject",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				signed, err := tokens.Issue("not-a-uuid", TokenAccess, 0, []string{"USER"})
				require.NoError(t, err)
				return "Bearer " + signed
			},
		},
		{
			name: "user deleted since issuance",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				userID := uuid.New()
				repo.On("GetUserByID", mock.Anything, userID).Return(nil, api.ErrNotFound)
				signed, err := tokens.Issue(userID.String(), TokenAccess, 0, []string{"USER"})
				require.NoError(t, err)
				return "Bearer " + signed
			},
		},
		{
			name: "version revoked since issuance",
			setup: func(t *testing.T, repo *MockAuthRepo) string {
				user := testUser(t, "password123")
				user.TokenVersion = 2
				repo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)
				signed, err := tokens.Issue(user.ID.String(), TokenAccess, 1, []string{"USER"})
				require.NoError(t, err)
				return "Bearer " + signed
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockAuthRepo)
			header := tc.setup(t, repo)

			probe := &identityProbe{}
			handler := Authenticate(testLogger(), tokens, repo)(probe.handler())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			// The gate never writes an error itself.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.True(t, probe.called)
			assert.False(t, probe.hasID)
		})
	}
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	tokens := newTestTokenService(t)
	repo := new(MockAuthRepo)

	user := testUser(t, "password123")
	repo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

	signed, err := tokens.Issue(user.ID.String(), TokenAccess, user.TokenVersion, []string{"USER"})
	require.NoError(t, err)

	probe := &identityProbe{}
	handler := Authenticate(testLogger(), tokens, repo)(probe.handler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, probe.hasID)
	assert.Equal(t, user.ID, probe.userID)
	assert.Equal(t, []string{"USER"}, probe.roles)
}

func TestAuthenticate_FirstIdentityWins(t *testing.T) {
	tokens := newTestTokenService(t)

	userA := testUser(t, "password123")
	repoA := new(MockAuthRepo)
	repoA.On("GetUserByID", mock.Anything, userA.ID).Return(userA, nil)

	repoB := new(MockAuthRepo) // must never be consulted

	signed, err := tokens.Issue(userA.ID.String(), TokenAccess, userA.TokenVersion, []string{"USER"})
	require.NoError(t, err)

	probe := &identityProbe{}
	inner := Authenticate(testLogger(), tokens, repoB)(probe.handler())
	handler := Authenticate(testLogger(), tokens, repoA)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, userA.ID, probe.userID)
	repoB.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestRequireAuth(t *testing.T) {
	t.Run("rejects anonymous with 401", func(t *testing.T) {
		probe := &identityProbe{}
		handler := RequireAuth(probe.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, probe.called)
		assert.Contains(t, rec.Body.String(), "AUTH_UNAUTHORIZED")
	})
}

func TestRequireRole(t *testing.T) {
	tokens := newTestTokenService(t)

	protect := func(role Role, user *User, repo *MockAuthRepo) (http.Handler, *identityProbe) {
		probe := &identityProbe{}
		h := RequireRole(role)(probe.handler())
		h = RequireAuth(h)
		h = Authenticate(testLogger(), tokens, repo)(h)
		return h, probe
	}

	t.Run("admin passes", func(t *testing.T) {
		user := testUser(t, "password123")
		user.Role = RoleAdmin
		repo := new(MockAuthRepo)
		repo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		signed, err := tokens.Issue(user.ID.String(), TokenAccess, user.TokenVersion, []string{"ADMIN"})
		require.NoError(t, err)

		handler, probe := protect(RoleAdmin, user, repo)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, probe.called)
	})

	t.Run("non-admin gets 403", func(t *testing.T) {
		user := testUser(t, "password123")
		repo := new(MockAuthRepo)
		repo.On("GetUserByID", mock.Anything, user.ID).Return(user, nil)

		signed, err := tokens.Issue(user.ID.String(), TokenAccess, user.TokenVersion, []string{"USER"})
		require.NoError(t, err)

		handler, probe := protect(RoleAdmin, user, repo)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, probe.called)
		assert.Contains(t, rec.Body.String(), "ACCESS_DENIED")
	})

	t.Run("anonymous gets 401 before role check", func(t *testing.T) {
		repo := new(MockAuthRepo)
		handler, probe := protect(RoleAdmin, nil, repo)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, probe.called)
	})
}
