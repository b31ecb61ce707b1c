package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
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

type storageStub struct {
	uploads    int
	destroyed  []string
	destroyErr error
}

func (s *storageStub) Upload(_ context.Context, name string, reader io.Reader) (string, string, error) {
	s.uploads++
	_, _ = io.Copy(io.Discard, reader)
	return "https://cdn.example.com/" + name, "park/" + name, nil
}

func (s *storageStub) Destroy(_ context.Context, publicID, _ string) (string, error) {
	if s.destroyErr != nil {
		return "", s.destroyErr
	}
	s.destroyed = append(s.destroyed, publicID)
	return "ok", nil
}

func newVideoFixture(t *testing.T) (VideoService, repository.VideoRepository, *storageStub) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Video{}, &models.Comment{}))

	repo := repository.NewVideoRepository(db)
	storage := &storageStub{}
	svc := NewVideoService(repo, storage, 1, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
	return svc, repo, storage
}

func registerVideo(t *testing.T, svc VideoService, uploader string) dto.VideoResponse {
	t.Helper()
	video, err := svc.Create(context.Background(), uploader, dto.VideoCreateRequest{
		Title:    "Lesson 1",
		URL:      "https://cdn.example.com/lesson1.mp4",
		PublicID: "park/lesson1",
	})
	require.NoError(t, err)
	return video
}

func buildFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"file\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

// Minimal valid PNG header so content sniffing sees an image.
func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}
}

func TestUploadThumbnailAcceptsImages(t *testing.T) {
	svc, _, storage := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")

	updated, err := svc.UploadThumbnail(context.Background(), video.ID, "alice", buildFileHeader(t, "thumb.png", pngBytes()))
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/thumb.png", updated.ThumbnailURL)
	require.Equal(t, 1, storage.uploads)
}

func TestUploadThumbnailRejectsNonImages(t *testing.T) {
	svc, _, storage := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")

	_, err := svc.UploadThumbnail(context.Background(), video.ID, "alice", buildFileHeader(t, "thumb.txt", []byte("plain text, not an image")))
	require.ErrorIs(t, err, ErrThumbnailTypeNotAllowed)
	require.Zero(t, storage.uploads)
}

func TestUploadThumbnailRejectsOversizedFiles(t *testing.T) {
	svc, _, _ := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")

	big := append(pngBytes(), make([]byte, 2*1024*1024)...)
	_, err := svc.UploadThumbnail(context.Background(), video.ID, "alice", buildFileHeader(t, "big.png", big))
	require.ErrorIs(t, err, ErrThumbnailTooLarge)
}

func TestUploadThumbnailIsUploaderOnly(t *testing.T) {
	svc, _, _ := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")

	_, err := svc.UploadThumbnail(context.Background(), video.ID, "bob", buildFileHeader(t, "thumb.png", pngBytes()))
	require.ErrorIs(t, err, ErrNotUploader)
}

func TestDeleteDestroysAssetBeforeMetadata(t *testing.T) {
	svc, repo, storage := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, video.ID, "alice", false))
	require.Equal(t, []string{"park/lesson1"}, storage.destroyed)

	_, err := repo.FindByID(ctx, video.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDeleteAbortsWhenDestroyFails(t *testing.T) {
	svc, repo, storage := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")
	ctx := context.Background()

	storage.destroyErr = errors.New("cdn unreachable")

	err := svc.Delete(ctx, video.ID, "alice", false)
	require.Error(t, err)

	// Metadata survives so the asset is never orphaned.
	stored, err := repo.FindByID(ctx, video.ID)
	require.NoError(t, err)
	require.Equal(t, video.ID, stored.ID)
}

func TestDeleteIsUploaderOrAdminOnly(t *testing.T) {
	svc, _, _ := newVideoFixture(t)
	video := registerVideo(t, svc, "alice")
	ctx := context.Background()

	err := svc.Delete(ctx, video.ID, "bob", false)
	require.ErrorIs(t, err, ErrNotUploader)

	require.NoError(t, svc.Delete(ctx, video.ID, "moderator", true))
}
