package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/park-academy/park-api/internal/dto"
)

type destroyStub struct {
	result string
	err    error
	calls  []dto.MediaDeleteRequest
}

func (s *destroyStub) Upload(context.Context, string, io.Reader) (string, string, error) {
	return "", "", errors.New("not used")
}

func (s *destroyStub) Destroy(_ context.Context, publicID, resourceType string) (string, error) {
	s.calls = append(s.calls, dto.MediaDeleteRequest{PublicID: publicID, ResourceType: resourceType})
	return s.result, s.err
}

func newMediaService(stub *destroyStub) MediaService {
	return NewMediaService(stub, validator.New(validator.WithRequiredStructEnabled()), zerolog.Nop())
}

func TestMediaDeleteReportsOK(t *testing.T) {
	stub := &destroyStub{result: "ok"}
	svc := newMediaService(stub)

	response, err := svc.Delete(context.Background(), "alice", dto.MediaDeleteRequest{PublicID: "park/lesson1", ResourceType: "video"})
	require.NoError(t, err)
	require.Equal(t, "ok", response.Result)
	require.Len(t, stub.calls, 1)
	require.Equal(t, "video", stub.calls[0].ResourceType)
}

func TestMediaDeleteTreatsAbsentAssetAsSuccess(t *testing.T) {
	stub := &destroyStub{result: "not found"}
	svc := newMediaService(stub)

	response, err := svc.Delete(context.Background(), "alice", dto.MediaDeleteRequest{PublicID: "park/ghost"})
	require.NoError(t, err)
	require.Equal(t, "ok", response.Result)
}

func TestMediaDeletePropagatesBackendFailures(t *testing.T) {
	stub := &destroyStub{err: errors.New("cdn unreachable")}
	svc := newMediaService(stub)

	_, err := svc.Delete(context.Background(), "alice", dto.MediaDeleteRequest{PublicID: "park/lesson1"})
	require.ErrorIs(t, err, ErrMediaDestroyFailed)
}

func TestMediaDeleteValidatesPayload(t *testing.T) {
	stub := &destroyStub{result: "ok"}
	svc := newMediaService(stub)

	_, err := svc.Delete(context.Background(), "alice", dto.MediaDeleteRequest{})
	require.Error(t, err)
	require.Empty(t, stub.calls)

	_, err = svc.Delete(context.Background(), "alice", dto.MediaDeleteRequest{PublicID: "x", ResourceType: "folder"})
	require.Error(t, err)
	require.Empty(t, stub.calls)
}
