package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"

	authcore "github.com/SideProjectSFY/cloneNova"
	"github.com/SideProjectSFY/cloneNova/middleware"
	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler serves the /auth HTTP surface on top of an [authcore.Engine].
type Handler struct {
	engine *authcore.Engine
	log    *zap.Logger
}

// NewHandler constructs a Handler. A nil logger disables request logging.
func NewHandler(engine *authcore.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		engine: engine,
		log:    logger,
	}
}

// Routes returns the fully wired /auth mux. Logout requires a valid
// access token; every other route is reachable anonymously.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("POST /auth/logout", middleware.Require(h.engine)(http.HandlerFunc(h.handleLogout)))
	mux.HandleFunc("POST /auth/refresh-token", h.handleRefresh)
	mux.HandleFunc("POST /auth/reset-password/request", h.handleResetRequest)
	mux.HandleFunc("POST /auth/reset-password/verify", h.handleResetVerify)
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("GET /auth/check-email", h.handleCheckEmail)
	mux.HandleFunc("GET /auth/check-nickname", h.handleCheckNickname)

	return h.withClientIP(mux)
}

func (h *Handler) withClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		next.ServeHTTP(w, r.WithContext(authcore.WithClientIP(r.Context(), ip)))
	})
}

type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Code: status, Message: message, Data: data}); err != nil {
		h.log.Warn("response encode failed", zap.Error(err))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A body with trailing content is malformed.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// mapError translates engine sentinels into HTTP status codes.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, authcore.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "too many failed login attempts"
	case errors.Is(err, authcore.ErrAccountDisabled):
		return http.StatusForbidden, "account is disabled"
	case errors.Is(err, authcore.ErrSocialAccount):
		return http.StatusBadRequest, "account uses a social login provider"
	case errors.Is(err, authcore.ErrRefreshInvalid):
		return http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, authcore.ErrTokenInvalid), errors.Is(err, authcore.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, authcore.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, authcore.ErrResetRateLimited):
		return http.StatusTooManyRequests, "too many password reset requests"
	case errors.Is(err, authcore.ErrResetExpired):
		return http.StatusGone, "reset token expired or already used"
	case errors.Is(err, authcore.ErrPasswordReuse):
		return http.StatusBadRequest, "new password must differ from the current one"
	case errors.Is(err, authcore.ErrPasswordPolicy):
		return http.StatusBadRequest, "password does not meet policy"
	case errors.Is(err, authcore.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, authcore.ErrNicknameTaken):
		return http.StatusConflict, "nickname already taken"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		sentry.CaptureException(err)
	} else {
		h.log.Info("request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
		)
	}

	h.writeJSON(w, status, message, nil)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeJSON(w, http.StatusBadRequest, "email and password are required", nil)
		return
	}

	result, err := h.engine.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, authcore.ErrLoginRateLimited) {
			w.Header().Set("Retry-After", strconv.FormatInt(h.engine.LoginRetryAfterSeconds(), 10))
		}
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "login successful", result)
}

type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeJSON(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req logoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}

	if err := h.engine.Logout(r.Context(), principal.UserID, req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "logout successful", nil)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if req.RefreshToken == "" {
		h.writeJSON(w, http.StatusBadRequest, "refreshToken is required", nil)
		return
	}

	result, err := h.engine.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "token refreshed", result)
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if req.Email == "" {
		h.writeJSON(w, http.StatusBadRequest, "email is required", nil)
		return
	}

	result, err := h.engine.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "password reset link sent", result)
}

type resetVerifyRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) handleResetVerify(w http.ResponseWriter, r *http.Request) {
	var req resetVerifyRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		h.writeJSON(w, http.StatusBadRequest, "token and newPassword are required", nil)
		return
	}

	result, err := h.engine.VerifyPasswordReset(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "password changed", result)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, "malformed request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" || req.Nickname == "" {
		h.writeJSON(w, http.StatusBadRequest, "email, password and nickname are required", nil)
		return
	}

	summary, err := h.engine.Register(r.Context(), authcore.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Nickname: req.Nickname,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, "account created", summary)
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

func (h *Handler) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.writeJSON(w, http.StatusBadRequest, "email query parameter is required", nil)
		return
	}

	free, err := h.engine.CheckEmailAvailable(r.Context(), email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "ok", availabilityResponse{Available: free})
}

func (h *Handler) handleCheckNickname(w http.ResponseWriter, r *http.Request) {
	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		h.writeJSON(w, http.StatusBadRequest, "nickname query parameter is required", nil)
		return
	}

	free, err := h.engine.CheckNicknameAvailable(r.Context(), nickname)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, "ok", availabilityResponse{Available: free})
}
