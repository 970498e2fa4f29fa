// Package httpapi exposes the services over a JSON HTTP API built on gin.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/metrics"
	"github.com/dmitrijs2005/studymate/internal/server/services"
	"github.com/gin-gonic/gin"
)

const maxMultipartMemory = 32 << 20

// Handler holds the services the endpoints call into.
type Handler struct {
	users      *services.UserService
	rels       *services.RelationshipService
	notes      *services.NoteService
	timetables *services.TimetableService
	invites    *services.InviteService
}

func NewHandler(users *services.UserService, rels *services.RelationshipService, notes *services.NoteService,
	timetables *services.TimetableService, invites *services.InviteService) *Handler {
	return &Handler{users: users, rels: rels, notes: notes, timetables: timetables, invites: invites}
}

// Options configures the router around the handler.
type Options struct {
	Gate        TokenResolver
	Logger      logging.Logger
	CORSOrigins []string
	// Health backs /healthz; nil means always healthy.
	Health func(ctx context.Context) error
}

func NewRouter(h *Handler, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), requestLogger(logger.With("module", "http")), corsMiddleware(opts.CORSOrigins))

	r.GET("/healthz", healthz(opts.Health))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.POST("/refresh", h.refresh)
	}

	authed := api.Group("", authRequired(opts.Gate))
	{
		authed.GET("/me", h.me)

		authed.GET("/bindings", h.relationship)
		authed.GET("/bindings/:user", h.isBound)
		authed.DELETE("/bindings/:user", h.unbind)
		authed.POST("/bindings/requests", h.sendRequest)
		authed.DELETE("/bindings/requests/:user", h.cancelRequest)
		authed.POST("/bindings/requests/:user/accept", h.acceptRequest)
		authed.POST("/bindings/requests/:user/reject", h.rejectRequest)

		authed.GET("/notes", h.listNotes)
		authed.POST("/notes", h.createNote)
		authed.DELETE("/notes", h.clearNotes)
		authed.GET("/notes/stats", h.noteStats)
		authed.GET("/notes/:id", h.getNote)
		authed.PUT("/notes/:id", h.updateNote)
		authed.DELETE("/notes/:id", h.deleteNote)

		authed.GET("/timetables", h.listTimetables)
		authed.POST("/timetables", h.uploadTimetables)
		authed.DELETE("/timetables", h.clearTimetables)
		authed.GET("/timetables/stats", h.timetableStats)
		authed.GET("/timetables/:id", h.getTimetable)
		authed.DELETE("/timetables/:id", h.deleteTimetable)
		authed.GET("/timetables/:id/export", h.exportTimetable)
		authed.GET("/timetables/:id/source", h.timetableSource)

		admin := authed.Group("/admin")
		admin.GET("/users", h.listUsers)
		admin.PUT("/users/:user/role", h.setRole)
		admin.GET("/invites", h.listInvites)
		admin.POST("/invites", h.createInvite)
		admin.DELETE("/invites/:code", h.deleteInvite)
		admin.GET("/timetables", h.listAllTimetables)
		admin.GET("/notes", h.listAllNotes)
	}

	return r
}

func healthz(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
