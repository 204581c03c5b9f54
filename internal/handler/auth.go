package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/cardshop-system/internal/middleware"
	"github.com/mmeshcher/cardshop-system/internal/otp"
	"github.com/mmeshcher/cardshop-system/internal/repository"
	"github.com/mmeshcher/cardshop-system/internal/service"
	"github.com/mmeshcher/cardshop-system/internal/token"
	"github.com/mmeshcher/cardshop-system/internal/validation"
)

// setAuthCookies выставляет пару httpOnly-кук с токенами доступа.
func setAuthCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookieName,
		Value:    access,
		Path:     "/",
		MaxAge:   int(token.AccessTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    refresh,
		Path:     "/",
		MaxAge:   int(token.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessCookieName, middleware.RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" || len(req.Password) < 6 {
		http.Error(w, "name and password of at least 6 characters are required", http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if !validation.IsValidPhone(req.Phone) {
		http.Error(w, "invalid phone number", http.StatusBadRequest)
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, "user already exists", http.StatusConflict)
			return
		}
		h.serverError(w, "register user error", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

// Login обрабатывает вход по email или телефону и паролю.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		http.Error(w, "identifier and password are required", http.StatusBadRequest)
		return
	}

	user, access, refresh, err := h.service.AuthenticateUser(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.serverError(w, "login error", err)
		return
	}

	setAuthCookies(w, access, refresh)
	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// LoginOTP обрабатывает вход по одноразовому коду, отправленному на email.
func (h *Handler) LoginOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) || req.Code == "" {
		http.Error(w, "email and code are required", http.StatusBadRequest)
		return
	}

	user, access, refresh, err := h.service.AuthenticateWithOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			http.Error(w, "invalid or expired code", http.StatusUnauthorized)
		case errors.Is(err, repository.ErrUserNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		default:
			h.serverError(w, "otp login error", err)
		}
		return
	}

	setAuthCookies(w, access, refresh)
	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Logout завершает сессию и отзывает refresh-токен пользователя.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(r.Context(), user.ID); err != nil {
		h.serverError(w, "logout error", err, zap.Int64("user_id", user.ID))
		return
	}

	clearAuthCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

// Refresh обменивает refresh-токен на новую пару токенов.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if c, err := r.Cookie(middleware.RefreshCookieName); err == nil {
		refreshToken = c.Value
	} else {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		http.Error(w, "refresh token is required", http.StatusUnauthorized)
		return
	}

	user, access, refresh, err := h.service.RefreshTokens(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, repository.ErrUserNotFound) {
			clearAuthCookies(w)
			http.Error(w, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.serverError(w, "refresh tokens error", err)
		return
	}

	setAuthCookies(w, access, refresh)
	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	h.writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateMe обновляет профиль текущего пользователя. Смена email требует
// подтверждённого одноразового кода на новый адрес.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Phone != "" && !validation.IsValidPhone(req.Phone) {
		http.Error(w, "invalid phone number", http.StatusBadRequest)
		return
	}
	if req.Email != "" && !validation.IsValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, service.ProfileUpdate{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOTP):
			http.Error(w, "email change requires a valid code", http.StatusUnauthorized)
		case errors.Is(err, repository.ErrUserExists):
			http.Error(w, "email or phone already in use", http.StatusConflict)
		default:
			h.serverError(w, "update profile error", err, zap.Int64("user_id", user.ID))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toUserResponse(updated))
}

// SendOTP отправляет одноразовый код на указанный email.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}

	if err := h.service.SendOTP(r.Context(), req.Email); err != nil {
		if errors.Is(err, otp.ErrRateLimited) {
			http.Error(w, "too many requests, try again later", http.StatusTooManyRequests)
			return
		}
		h.serverError(w, "send otp error", err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// CheckOTP проверяет одноразовый код без входа в систему.
func (h *Handler) CheckOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !validation.IsValidEmail(req.Email) || req.Code == "" {
		http.Error(w, "email and code are required", http.StatusBadRequest)
		return
	}

	ok, err := h.service.CheckOTP(r.Context(), req.Email, req.Code)
	if err != nil {
		h.serverError(w, "check otp error", err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"valid": ok})
}
