package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	InviteCode string `json:"invite_code"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

type inviteRequest struct {
	Role   string `json:"role"`
	Prefix string `json:"prefix"`
	Length int    `json:"length"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	Username   string      `json:"username"`
	Role       models.Role `json:"role"`
	InviteUsed string      `json:"invite_used,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{Username: u.Username, Role: u.Role, InviteUsed: u.InviteUsed, CreatedAt: u.CreatedAt}
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.Password, req.InviteCode)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	pair, err := h.users.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), actorOf(c).Username)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) listUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context(), actorOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) setRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.users.SetRole(c.Request.Context(), actorOf(c), c.Param("user"), req.Role); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listInvites(c *gin.Context) {
	list, err := h.invites.List(c.Request.Context(), actorOf(c), c.Query("active") == "true")
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createInvite(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	inv, err := h.invites.Create(c.Request.Context(), actorOf(c), req.Role, req.Prefix, req.Length)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) deleteInvite(c *gin.Context) {
	if err := h.invites.Delete(c.Request.Context(), actorOf(c), c.Param("code")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
