package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/dto"
	"github.com/park-academy/park-api/internal/utils"
)

type stubMediaService struct {
	last dto.MediaDeleteRequest
	err  error
}

func (s *stubMediaService) Delete(_ context.Context, _ string, payload dto.MediaDeleteRequest) (dto.MediaDeleteResponse, error) {
	s.last = payload
	if s.err != nil {
		return dto.MediaDeleteResponse{}, s.err
	}
	return dto.MediaDeleteResponse{Result: "ok"}, nil
}

func newMediaApp(stub *stubMediaService, authenticated bool) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/cloudinary", func(c *fiber.Ctx) error {
		if authenticated {
			c.Locals("user_id", "alice")
		}
		return c.Next()
	})
	NewMediaHandler(stub, zerolog.Nop()).Register(group)
	return app
}

func TestMediaDeleteEndpoint(t *testing.T) {
	stub := &stubMediaService{}
	app := newMediaApp(stub, true)

	payload := []byte(`{"publicId":"park/lesson1","resourceType":"video"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/cloudinary/delete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "park/lesson1", stub.last.PublicID)
	require.Equal(t, "video", stub.last.ResourceType)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope utils.APIResponse
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.True(t, envelope.Success)
}

func TestMediaDeleteRequiresAuthentication(t *testing.T) {
	app := newMediaApp(&stubMediaService{}, false)

	payload := []byte(`{"publicId":"park/lesson1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/cloudinary/delete", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
