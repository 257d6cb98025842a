package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	mid "github.com/Meizuno/Chat/middleware"
	midsec "github.com/Meizuno/Chat/middleware/security"
	"github.com/Meizuno/Chat/module/user/service"
	"github.com/Meizuno/Chat/tools/errs"
)

// Handler exposes the auth/user HTTP surface:
//
//	POST /auth/login            {email, password}            -> {user, token}
//	POST /auth/register         {firstName, ...}             -> {user, token}
//	POST /auth/logout           (bearer)                     -> {}
//	POST /auth/refresh          (bearer)                     -> {user, token}
//	GET  /user/me               (bearer)                     -> user
//	POST /user/forgot-password  {email, redirectTo}          -> {}
//	PUT  /user/reset-password   {password, token}            -> {}
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register wires the routes onto the engine.
func (h *Handler) Register(r gin.IRoutes) {
	auth := midsec.Middleware(midsec.DefaultOptions(), h.svc.Authenticate)

	mid.POST(r, "/auth/login", h.login, mid.RouteOpt{})
	mid.POST(r, "/auth/register", h.register, mid.RouteOpt{})
	mid.POST(r, "/auth/logout", h.logout, mid.RouteOpt{Auth: auth})
	mid.POST(r, "/auth/refresh", h.refresh, mid.RouteOpt{Auth: auth})
	mid.GET(r, "/user/me", h.me, mid.RouteOpt{Auth: auth})
	mid.POST(r, "/user/forgot-password", h.forgotPassword, mid.RouteOpt{})
	mid.PUT(r, "/user/reset-password", h.resetPassword, mid.RouteOpt{})
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

type registerReq struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	u, token, err := h.svc.Register(c.Request.Context(), req.FirstName, req.LastName, req.Email, req.Password)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u, "token": token})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), midsec.UserID(c)); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) refresh(c *gin.Context) {
	u, token, err := h.svc.Refresh(c.Request.Context(), midsec.Token(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": token})
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.svc.Me(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type forgotPasswordReq struct {
	Email      string `json:"email" binding:"required,email"`
	RedirectTo string `json:"redirectTo"`
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	// The token goes out through the mail channel, never in the response.
	if _, err := h.svc.ForgotPassword(c.Request.Context(), req.Email, req.RedirectTo); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type resetPasswordReq struct {
	Password string `json:"password" binding:"required,min=8"`
	Token    string `json:"token" binding:"required"`
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req.Password, req.Token); err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// abortWith maps service errors onto HTTP statuses; the body always carries
// {"error": <presentable message>}.
func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrBadCredentials),
		errors.Is(err, errs.ErrTokenInvalid),
		errors.Is(err, errs.ErrTokenExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrUserNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": errs.Msg(err)})
}
