package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/models"
	"github.com/park-academy/park-api/internal/repository"
)

func newNoteService(t *testing.T) NoteService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Note{}))

	svc, err := NewNoteService(repository.NewNoteRepository(db), validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func validNoteContent() json.RawMessage {
	return json.RawMessage(`{"version":1,"blocks":[{"type":"heading","text":"Lesson 3"},{"type":"paragraph","text":"Pointers are addresses."}]}`)
}

func TestNoteCreateValidatesContentShape(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "alice", dto.NoteCreateRequest{
		Title:   "Go basics",
		Content: validNoteContent(),
	})
	require.NoError(t, err)
	require.Equal(t, "alice", note.OwnerID)
	require.Equal(t, "Go basics", note.Title)

	_, err = svc.Create(ctx, "alice", dto.NoteCreateRequest{
		Title:   "broken",
		Content: json.RawMessage(`{"blocks":[{"type":"marquee","text":"nope"}]}`),
	})
	require.ErrorIs(t, err, ErrInvalidNoteContent)

	_, err = svc.Create(ctx, "alice", dto.NoteCreateRequest{
		Title:   "not even json",
		Content: json.RawMessage(`{"blocks":`),
	})
	require.ErrorIs(t, err, ErrInvalidNoteContent)
}

func TestNoteAccessIsOwnerScoped(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "alice", dto.NoteCreateRequest{
		Title:   "private",
		Content: validNoteContent(),
	})
	require.NoError(t, err)

	_, err = svc.Get(ctx, note.ID, "bob")
	require.ErrorIs(t, err, ErrNotNoteOwner)

	err = svc.Delete(ctx, note.ID, "bob")
	require.ErrorIs(t, err, ErrNotNoteOwner)

	notes, err := svc.List(ctx, "bob", 10, 0)
	require.NoError(t, err)
	require.Empty(t, notes)

	require.NoError(t, svc.Delete(ctx, note.ID, "alice"))
}

func TestNoteUpdateRevalidatesContent(t *testing.T) {
	svc := newNoteService(t)
	ctx := context.Background()

	note, err := svc.Create(ctx, "alice", dto.NoteCreateRequest{
		Title:   "draft",
		Content: validNoteContent(),
	})
	require.NoError(t, err)

	title := "final"
	updated, err := svc.Update(ctx, note.ID, "alice", dto.NoteUpdateRequest{
		Title:   &title,
		Content: json.RawMessage(`{"blocks":[{"type":"code","text":"fmt.Println(42)"}]}`),
	})
	require.NoError(t, err)
	require.Equal(t, "final", updated.Title)

	_, err = svc.Update(ctx, note.ID, "alice", dto.NoteUpdateRequest{
		Content: json.RawMessage(`{"blocks":"not a list"}`),
	})
	require.ErrorIs(t, err, ErrInvalidNoteContent)
}
