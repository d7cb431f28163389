package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-editor/internal/backend"
	"github.com/noah-isme/sma-timetable-editor/internal/models"
	"github.com/noah-isme/sma-timetable-editor/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-editor/pkg/errors"
	"github.com/noah-isme/sma-timetable-editor/pkg/middleware/requestid"
)

type validatorStub struct {
	claims *models.JWTClaims
	seen   string
}

func (v *validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	v.seen = token
	if v.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

type ctxProbe struct{ ctx context.Context }

func newRouter(v TokenValidator, probe *ctxProbe, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/protected", JWT(v), RequireRoles(roles...), func(c *gin.Context) {
		probe.ctx = c.Request.Context()
		c.JSON(http.StatusOK, gin.H{"user": Claims(c).UserID})
	})
	return r
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	r := newRouter(&validatorStub{}, &ctxProbe{}, models.RoleAdmin)

	for _, header := range []string{"", "Token abc", "Bearer"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestJWTRejectsInvalidToken(t *testing.T) {
	v := &validatorStub{}
	r := newRouter(v, &ctxProbe{}, models.RoleAdmin)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "bad", v.seen)
}

func TestJWTForwardsIdentityAndRBAC(t *testing.T) {
	probe := &ctxProbe{}
	v := &validatorStub{claims: &models.JWTClaims{UserID: "u-1", Role: models.RoleTeacher}}
	r := newRouter(v, probe, models.RoleAdmin, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set("X-Request-ID", "req-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u-1")
	require.NotNil(t, probe.ctx)
	assert.Equal(t, "good", backend.TokenFromContext(probe.ctx))
	assert.Equal(t, "req-1", backend.RequestIDFromContext(probe.ctx))
}

func TestRequireRolesForbidsOtherRoles(t *testing.T) {
	v := &validatorStub{claims: &models.JWTClaims{UserID: "s-1", Role: models.RoleStudent}}
	r := newRouter(v, &ctxProbe{}, models.RoleAdmin, models.RoleTeacher)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	found := false
	for _, fam := range families {
		if fam.GetName() == "http_requests_total" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			assert.Equal(t, float64(1), fam.GetMetric()[0].GetCounter().GetValue())
		}
	}
	assert.True(t, found)
}

func TestResponseMetaCarriesCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/cached", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cached", nil))
	assert.Equal(t, true, meta["cache_hit"])
}
