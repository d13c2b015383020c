package controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"

	"github.com/ahmedelbailey/occla-backend/controllers"
	"github.com/ahmedelbailey/occla-backend/middleware"
	"github.com/ahmedelbailey/occla-backend/models"
)

type authFixture struct {
	router *gin.Engine
	db     *gorm.DB
}

func newAuthFixture(t *testing.T, actingUser uint) *authFixture {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	auth := controllers.NewAuthController(db)

	r := gin.New()
	r.PUT("/api/v1/auth/signup", auth.Signup)
	r.POST("/api/v1/auth/login", auth.Login)

	authed := r.Group("", func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, actingUser)
	})
	authed.GET("/api/v1/auth/status", auth.GetStatus)
	authed.PUT("/api/v1/auth/status", auth.UpdateStatus)

	return &authFixture{router: r, db: db}
}

func (fx *authFixture) doJSON(t *testing.T, method, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestSignupAndLogin(t *testing.T) {
	fx := newAuthFixture(t, 1)

	rec := fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", gin.H{
		"email":    "ahmed@example.com",
		"name":     "Ahmed",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user models.User
	require.NoError(t, fx.db.First(&user).Error)
	assert.Equal(t, "ahmed@example.com", user.Email)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.Equal(t, "I am new!", user.Status)

	rec = fx.doJSON(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "Ahmed@Example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.NotEmpty(t, data["token"])
	assert.EqualValues(t, user.ID, data["userId"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t, 1)

	payload := gin.H{"email": "ahmed@example.com", "name": "Ahmed", "password": "secret123"}
	rec := fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignupInvalidPayload(t *testing.T) {
	fx := newAuthFixture(t, 1)

	rec := fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", gin.H{
		"email":    "not-an-email",
		"name":     "Ahmed",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newAuthFixture(t, 1)

	rec := fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", gin.H{
		"email":    "ahmed@example.com",
		"name":     "Ahmed",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = fx.doJSON(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "ahmed@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = fx.doJSON(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserStatusRoundTrip(t *testing.T) {
	fx := newAuthFixture(t, 1)

	rec := fx.doJSON(t, http.MethodPut, "/api/v1/auth/signup", gin.H{
		"email":    "ahmed@example.com",
		"name":     "Ahmed",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	out := httptest.NewRecorder()
	fx.router.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "I am new!", decodeData(t, out)["status"])

	rec = fx.doJSON(t, http.MethodPut, "/api/v1/auth/status", gin.H{"status": "Shipping code"})
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
	out = httptest.NewRecorder()
	fx.router.ServeHTTP(out, req)
	require.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "Shipping code", decodeData(t, out)["status"])
}
