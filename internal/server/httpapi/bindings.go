package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type targetRequest struct {
	Target string `json:"target"`
}

func (h *Handler) relationship(c *gin.Context) {
	c.JSON(http.StatusOK, h.rels.Record(c.Request.Context(), actorOf(c).Username))
}

func (h *Handler) isBound(c *gin.Context) {
	other := c.Param("user")
	c.JSON(http.StatusOK, gin.H{
		"user":  other,
		"bound": h.rels.IsBound(c.Request.Context(), actorOf(c).Username, other),
	})
}

func (h *Handler) sendRequest(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.rels.SendRequest(c.Request.Context(), actorOf(c).Username, req.Target); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h *Handler) cancelRequest(c *gin.Context) {
	h.relationshipOp(c, h.rels.CancelSentRequest)
}

func (h *Handler) acceptRequest(c *gin.Context) {
	h.relationshipOp(c, h.rels.AcceptRequest)
}

func (h *Handler) rejectRequest(c *gin.Context) {
	h.relationshipOp(c, h.rels.RejectReceivedRequest)
}

func (h *Handler) unbind(c *gin.Context) {
	h.relationshipOp(c, h.rels.Unbind)
}

func (h *Handler) relationshipOp(c *gin.Context, op func(ctx context.Context, current, other string) error) {
	if err := op(c.Request.Context(), actorOf(c).Username, c.Param("user")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
