package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"market-cutover/pkg/auth"
	"market-cutover/pkg/db"
	"market-cutover/pkg/model"
)

func newAuthMux(t *testing.T) (*http.ServeMux, *auth.Issuer, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	issuer := auth.NewIssuer(testSecret)
	mux := http.NewServeMux()
	(&AuthHandler{DB: gdb, Issuer: issuer}).RegisterRoutes(mux)
	return mux, issuer, gdb
}

func postAuth(t *testing.T, mux *http.ServeMux, path, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(authRequest{Username: user, Password: pass})
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b)))
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	mux, issuer, _ := newAuthMux(t)

	rec := postAuth(t, mux, "/api/v1/auth/register", "alice", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tok tokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	claims, err := issuer.Parse(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.True(t, claims.Admin)

	rec = postAuth(t, mux, "/api/v1/auth/register", "bob", "pw")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postAuth(t, mux, "/api/v1/auth/login", "alice", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = postAuth(t, mux, "/api/v1/auth/login", "nobody", "s3cret")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postAuth(t, mux, "/api/v1/auth/login", "alice", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.NotEmpty(t, tok.Token)

	rec = postAuth(t, mux, "/api/v1/auth/login", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcurrentFirstRegistrationCreatesOneAdmin(t *testing.T) {
	mux, _, gdb := newAuthMux(t)

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(authRequest{Username: fmt.Sprintf("op-%d", i), Password: "pw"})
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(b)))
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, c := range codes {
		if c == http.StatusOK {
			ok++
		} else {
			assert.Equal(t, http.StatusForbidden, c)
		}
	}
	assert.Equal(t, 1, ok)
	var count int64
	require.NoError(t, gdb.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSecondBootstrapOperatorRejectedByIndex(t *testing.T) {
	mux, _, gdb := newAuthMux(t)
	rec := postAuth(t, mux, "/api/v1/auth/register", "alice", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)

	first := true
	err := gdb.Create(&model.User{Username: "mallory", PasswordHash: "x", IsAdmin: true, FirstOperator: &first}).Error
	assert.Error(t, err)
	// ordinary accounts leave the column NULL and do not collide
	assert.NoError(t, gdb.Create(&model.User{Username: "bob", PasswordHash: "x"}).Error)
	assert.NoError(t, gdb.Create(&model.User{Username: "carol", PasswordHash: "x"}).Error)
}
