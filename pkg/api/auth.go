package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"market-cutover/pkg/auth"
	"market-cutover/pkg/model"
)

const tokenTTL = 24 * time.Hour

var errRegistrationClosed = errors.New("registration closed")

// AuthHandler manages operator accounts stored in MySQL.
type AuthHandler struct {
	DB     *gorm.DB
	Issuer *auth.Issuer
	Logger *zap.Logger
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (a *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	if a.Logger == nil {
		a.Logger = zap.NewNop()
	}
	mux.HandleFunc("/api/v1/auth/register", a.handleRegister)
	mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
}

// handleRegister only allows the first operator to be created; that operator is the admin.
func (a *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	first := true
	user := model.User{Username: req.Username, PasswordHash: hash, IsAdmin: true, FirstOperator: &first}
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return errRegistrationClosed
		}
		return tx.Create(&user).Error
	})
	if err != nil && !errors.Is(err, errRegistrationClosed) && a.registrationClosed() {
		// lost the race on the FirstOperator index
		err = errRegistrationClosed
	}
	if errors.Is(err, errRegistrationClosed) {
		http.Error(w, "registration closed", http.StatusForbidden)
		return
	}
	if err != nil {
		a.Logger.Error("create user", zap.Error(err))
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	a.Logger.Info("operator registered", zap.String("username", user.Username))
	a.issue(w, user)
}

func (a *AuthHandler) registrationClosed() bool {
	var count int64
	return a.DB.Model(&model.User{}).Count(&count).Error == nil && count > 0
}

func (a *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	var user model.User
	if err := a.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	a.issue(w, user)
}

func (a *AuthHandler) issue(w http.ResponseWriter, user model.User) {
	token, err := a.Issuer.Generate(user.ID, user.Username, user.IsAdmin, tokenTTL)
	if err != nil {
		a.Logger.Error("sign token", zap.Error(err))
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
