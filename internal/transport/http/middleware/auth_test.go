package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studyhub/internal/core/auth"
	"studyhub/internal/domain"
	"studyhub/internal/repo"
	"studyhub/pkg/utils"
)

func init() { gin.SetMode(gin.TestMode) }

func newGateEnv(t *testing.T) (*gin.Engine, *repo.IdentityMem, *auth.JWTer) {
	t.Helper()
	store := repo.NewIdentityMem()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "studyhub", TTL: time.Hour}

	r := gin.New()
	authed := r.Group("")
	authed.Use(Authenticate(jwter, store, zap.NewNop()))
	authed.GET("/whoami", func(c *gin.Context) {
		u := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})

	admin := r.Group("/admin")
	admin.Use(Authenticate(jwter, store, zap.NewNop()), RequireRole(domain.RoleAdmin))
	admin.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })

	return r, store, jwter
}

func seed(t *testing.T, store *repo.IdentityMem, role, status string) *domain.Identity {
	t.Helper()
	u := &domain.Identity{
		ID:           utils.NewID(),
		Email:        utils.NewID() + "@x.com",
		Name:         "t",
		PasswordHash: "x",
		Role:         role,
		Status:       status,
	}
	require.NoError(t, store.Create(u))
	return u
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate_MissingToken(t *testing.T) {
	t.Parallel()
	r, _, _ := newGateEnv(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/whoami", "").Code)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()
	r, _, _ := newGateEnv(t)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/whoami", "garbage").Code)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()
	r, store, _ := newGateEnv(t)
	u := seed(t, store, domain.RoleUser, domain.StatusActive)

	expired := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "studyhub", TTL: -5 * time.Minute}
	tok, err := expired.Issue(u.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/whoami", tok).Code)
}

func TestAuthenticate_DeletedIdentity(t *testing.T) {
	t.Parallel()
	r, store, jwter := newGateEnv(t)
	u := seed(t, store, domain.RoleUser, domain.StatusActive)
	tok, err := jwter.Issue(u.ID)
	require.NoError(t, err)

	// token 结构有效且未过期，但发 token 后账号被删
	require.NoError(t, store.Delete(u.ID))
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/whoami", tok).Code)
}

func TestAuthenticate_DeactivatedIdentity(t *testing.T) {
	t.Parallel()
	r, store, jwter := newGateEnv(t)
	u := seed(t, store, domain.RoleUser, domain.StatusDeactivated)
	tok, err := jwter.Issue(u.ID)
	require.NoError(t, err)

	// token 仍可解析，但门上按状态拒绝
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/whoami", tok).Code)
}

func TestAuthenticate_SuccessAttachesIdentityAndTouches(t *testing.T) {
	t.Parallel()
	r, store, jwter := newGateEnv(t)
	u := seed(t, store, domain.RoleUser, domain.StatusActive)
	tok, err := jwter.Issue(u.ID)
	require.NoError(t, err)

	w := do(r, http.MethodGet, "/whoami", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID)

	got, _ := store.FindByID(u.ID)
	require.NotNil(t, got.LastActiveAt)
	assert.WithinDuration(t, time.Now(), *got.LastActiveAt, 5*time.Second)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	r, store, jwter := newGateEnv(t)

	user := seed(t, store, domain.RoleUser, domain.StatusActive)
	admin := seed(t, store, domain.RoleAdmin, domain.StatusActive)

	userTok, err := jwter.Issue(user.ID)
	require.NoError(t, err)
	adminTok, err := jwter.Issue(admin.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin/ping", userTok).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin/ping", adminTok).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/ping", "").Code)
}
