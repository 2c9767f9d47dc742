package roblox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/lorenzocolitta/brotherhood-kos/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{UsersBaseURL: server.URL, ThumbnailsBaseURL: server.URL}, nil)
}

func TestResolveByID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/156":
			_, _ = w.Write([]byte(`{"id":156,"name":"builderman","displayName":"Builderman"}`))
		case "/v1/users/avatar-headshot":
			_, _ = w.Write([]byte(`{"data":[{"imageUrl":"https://cdn.example/headshot.png"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	user, err := client.Resolve(context.Background(), "156")
	require.NoError(t, err)
	assert.Equal(t, "156", user.ID)
	assert.Equal(t, "builderman", user.Name)
	require.NotNil(t, user.ThumbnailURL)
	assert.Equal(t, "https://cdn.example/headshot.png", *user.ThumbnailURL)
}

func TestResolveByUsername(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/usernames/users":
			require.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"data":[{"id":261,"name":"Shedletsky","displayName":"Shedletsky"}]}`))
		case "/v1/users/avatar-headshot":
			_, _ = w.Write([]byte(`{"data":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	user, err := client.Resolve(context.Background(), "Shedletsky")
	require.NoError(t, err)
	assert.Equal(t, "261", user.ID)
	assert.Nil(t, user.ThumbnailURL)
}

func TestResolveUnknownUser(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/usernames/users" {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Resolve(context.Background(), "nosuchuser")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = client.Resolve(context.Background(), "999999")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResolveThumbnailFailureIsNonFatal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/users/156":
			_, _ = w.Write([]byte(`{"id":156,"name":"builderman","displayName":"Builderman"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	user, err := client.Resolve(context.Background(), "156")
	require.NoError(t, err)
	assert.Nil(t, user.ThumbnailURL)
}
