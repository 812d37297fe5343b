package user

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/httpx"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/identity"
	"github.com/ovaphlow/pitchfork/service-taskbite/internal/user/entity"
)

// Handler exposes HTTP endpoints for the account workflows.
type Handler struct {
	svc    *UserService
	logger *zap.SugaredLogger
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type registerResponse struct {
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		Message: "User registered successfully. Check your email to verify your account.",
		User:    u,
	})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.VerifyEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, out.String())
}

type emailRequest struct {
	Email string `json:"email"`
}

// writeEmailFlowError keeps unknown emails on the 400 path for the mail triggering endpoints.
func (h *Handler) writeEmailFlowError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		httpx.WriteErrorStatus(w, r, h.logger, http.StatusBadRequest, err)
		return
	}
	httpx.WriteError(w, r, h.logger, err)
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.svc.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeEmailFlowError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Verification email sent")
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		AccessToken: res.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.ExpiresAt.UTC(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, _ := identity.UserID(r.Context())
	if err := h.svc.Logout(r.Context(), id); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Logout successful")
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeEmailFlowError(w, r, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password reset email sent successfully")
}

type resetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "Password reset successfully")
}

type userResponse struct {
	Message string       `json:"message"`
	User    *entity.User `json:"user"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req ProfileUpdate
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	acting, _ := identity.UserID(r.Context())
	u, err := h.svc.UpdateProfile(r.Context(), acting, r.PathValue("user_id"), req)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{Message: "User updated successfully", User: u})
}

type deleteRequest struct {
	ID string `json:"id"`
}

// DeleteByBody handles POST /delete with {"id": ...}.
func (h *Handler) DeleteByBody(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	h.delete(w, r, req.ID)
}

func (h *Handler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, r.PathValue("user_id"))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, target string) {
	acting, _ := identity.UserID(r.Context())
	if err := h.svc.DeleteAccount(r.Context(), acting, target); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteMessage(w, http.StatusOK, "User deleted successfully")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	acting, _ := identity.UserID(r.Context())
	u, err := h.svc.Get(r.Context(), acting)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse{Message: "User retrieved successfully", User: u})
}
