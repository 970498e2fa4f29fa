package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/studymate/internal/common"
	"github.com/dmitrijs2005/studymate/internal/logging"
	"github.com/dmitrijs2005/studymate/internal/server/access"
	"github.com/dmitrijs2005/studymate/internal/server/content"
	"github.com/dmitrijs2005/studymate/internal/server/models"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/notes"
	"github.com/dmitrijs2005/studymate/internal/server/repositories/repomanager"
)

// NoteInput is what a client submits when writing a note. Tags is the raw
// comma separated list.
type NoteInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Tags     string `json:"tags"`
	Category string `json:"category"`
}

func (in NoteInput) apply(n *models.Note) error {
	if strings.TrimSpace(in.Content) == "" {
		return common.ErrEmptyField
	}
	n.Title = strings.TrimSpace(in.Title)
	n.Content = in.Content
	n.Tags = models.ParseTags(in.Tags)
	n.Category = strings.TrimSpace(in.Category)
	if n.Category == "" {
		n.Category = common.DefaultNoteCategory
	}
	return nil
}

// NoteService keeps schedule notes. Unlike timetables, notes are edited in
// place by their author.
type NoteService struct {
	*content.Store[models.Note]
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager, vis content.Visibility, logger logging.Logger) *NoteService {
	return &NoteService{Store: content.NewStore(m.Notes(db), vis, noteHooks(m.Notes(db)), logger)}
}

func noteHooks(repo notes.Repository) content.Hooks[models.Note] {
	return content.Hooks[models.Note]{
		Kind: "note",
		NewID: func(ctx context.Context, _ string, _ models.Note) (string, error) {
			return repo.NextID(ctx)
		},
		Prepare: func(id string, n *models.Note) {
			if n.Title == "" {
				n.Title = "Note " + id
			}
		},
		Title:    func(n models.Note) string { return n.Title },
		Text:     func(n models.Note) string { return n.Content },
		Category: func(n models.Note) string { return n.Category },
		Editable: true,
	}
}

// Create stores a new note. A blank title becomes "Note <id>".
func (s *NoteService) Create(ctx context.Context, actor access.Actor, in NoteInput) (*notes.Record, error) {
	var n models.Note
	if err := in.apply(&n); err != nil {
		return nil, err
	}
	return s.Store.Create(ctx, actor, n)
}

// Update replaces every field of a note the actor wrote.
func (s *NoteService) Update(ctx context.Context, actor access.Actor, id string, in NoteInput) (*notes.Record, error) {
	return s.Store.Update(ctx, actor, id, func(n *models.Note) error {
		if err := in.apply(n); err != nil {
			return err
		}
		if n.Title == "" {
			n.Title = "Note " + id
		}
		return nil
	})
}
