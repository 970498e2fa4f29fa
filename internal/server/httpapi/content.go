package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/services"
	"github.com/gin-gonic/gin"
)

func listOptions(c *gin.Context) (content.ListOptions, error) {
	scope, err := content.ParseScope(c.Query("scope"))
	if err != nil {
		return content.ListOptions{}, err
	}
	order, err := content.ParseSort(c.Query("sort"))
	if err != nil {
		return content.ListOptions{}, err
	}
	return content.ListOptions{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Scope:    scope,
		Sort:     order,
	}, nil
}

// --- notes ---

// NoteResponse flattens a note record.
type NoteResponse struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	Category  string    `json:"category"`
	CharCount int       `json:"char_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toNoteResponse(r *content.Record[models.Note]) NoteResponse {
	return NoteResponse{
		ID:        r.ID,
		Author:    r.Author,
		Title:     r.Payload.Title,
		Content:   r.Payload.Content,
		Tags:      r.Payload.Tags,
		Category:  r.Payload.Category,
		CharCount: r.Payload.CharCount(),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toNoteResponses(list []*content.Record[models.Note]) []NoteResponse {
	out := make([]NoteResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toNoteResponse(r))
	}
	return out
}

func (h *Handler) listNotes(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		abort(c, err)
		return
	}
	list, err := h.notes.List(c.Request.Context(), actorOf(c), opts)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponses(list))
}

func (h *Handler) listAllNotes(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		abort(c, err)
		return
	}
	list, err := h.notes.ListAll(c.Request.Context(), actorOf(c), opts)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponses(list))
}

func (h *Handler) createNote(c *gin.Context) {
	var in services.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.notes.Create(c.Request.Context(), actorOf(c), in)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, toNoteResponse(rec))
}

func (h *Handler) getNote(c *gin.Context) {
	rec, err := h.notes.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(rec))
}

func (h *Handler) updateNote(c *gin.Context) {
	var in services.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	rec, err := h.notes.Update(c.Request.Context(), actorOf(c), c.Param("id"), in)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toNoteResponse(rec))
}

func (h *Handler) deleteNote(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearNotes(c *gin.Context) {
	n, err := h.notes.ClearAll(c.Request.Context(), actorOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) noteStats(c *gin.Context) {
	st, err := h.notes.Stats(c.Request.Context(), actorOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// --- timetables ---

// TimetableSummary is a timetable without its cells.
type TimetableSummary struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	FileName  string    `json:"file_name"`
	Header    []string  `json:"header"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

func toTimetableSummaries(list []*content.Record[models.Timetable]) []TimetableSummary {
	out := make([]TimetableSummary, 0, len(list))
	for _, r := range list {
		out = append(out, TimetableSummary{
			ID:        r.ID,
			Author:    r.Author,
			FileName:  r.Payload.FileName,
			Header:    r.Payload.Document.Header,
			RowCount:  len(r.Payload.Document.Rows),
			CreatedAt: r.CreatedAt,
		})
	}
	return out
}

// UploadResult reports one file of a multi-file upload.
type UploadResult struct {
	File    string `json:"file"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) listTimetables(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		abort(c, err)
		return
	}
	list, err := h.timetables.List(c.Request.Context(), actorOf(c), opts)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimetableSummaries(list))
}

func (h *Handler) listAllTimetables(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		abort(c, err)
		return
	}
	list, err := h.timetables.ListAll(c.Request.Context(), actorOf(c), opts)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, toTimetableSummaries(list))
}

// uploadTimetables stores every file of the "files" form field. Files that
// fail (duplicates included) are reported and skipped.
func (h *Handler) uploadTimetables(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, err)
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		abort(c, common.ErrEmptyField)
		return
	}

	ctx := c.Request.Context()
	actor := actorOf(c)
	lang := c.GetHeader("Accept-Language")

	results := make([]UploadResult, 0, len(files))
	stored := 0
	for _, fh := range files {
		res := UploadResult{File: fh.Filename}
		data, err := readPart(fh)
		if err == nil {
			var rec *content.Record[models.Timetable]
			if rec, err = h.timetables.Upload(ctx, actor, fh.Filename, data); err == nil {
				res.ID = rec.ID
				stored++
			}
		}
		if err != nil {
			res.Error = common.Code(err)
			res.Message = Localize(res.Error, lang)
			_ = c.Error(err)
		}
		results = append(results, res)
	}

	status := http.StatusCreated
	if stored == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"stored": stored, "results": results})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (h *Handler) getTimetable(c *gin.Context) {
	rec, err := h.timetables.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) deleteTimetable(c *gin.Context) {
	if err := h.timetables.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearTimetables(c *gin.Context) {
	n, err := h.timetables.ClearAll(c.Request.Context(), actorOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func (h *Handler) timetableStats(c *gin.Context) {
	st, err := h.timetables.Stats(c.Request.Context(), actorOf(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) exportTimetable(c *gin.Context) {
	id := c.Param("id")
	format := strings.ToLower(c.DefaultQuery("format", "xlsx"))
	data, contentType, err := h.timetables.Export(c.Request.Context(), actorOf(c), id, format)
	if err != nil {
		abort(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"."+format))
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) timetableSource(c *gin.Context) {
	url, err := h.timetables.SourceURL(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
