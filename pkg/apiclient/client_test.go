package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost_SendsFilesInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, postsMediaPath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["media"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.jpg", files[0].Filename)
		assert.Equal(t, "image/jpeg", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "b.mp4", files[1].Filename)
		assert.Equal(t, "video/mp4", files[1].Header.Get("Content-Type"))

		f, err := files[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "vid", string(data))

		assert.Equal(t, "sunset", r.FormValue("caption"))
		assert.Equal(t, "Travel", r.FormValue("tag"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p1","media":[{"url":"/media/a","type":"image","order":0},{"url":"/media/b","type":"video","order":1}],"tag":"Travel"}`))
	}))
	defer srv.Close()

	client := New(srv.URL+"/", "tok", srv.Client())
	post, err := client.CreatePost(context.Background(), []File{
		{Name: "a.jpg", ContentType: "image/jpeg", Data: []byte("img")},
		{Name: "b.mp4", ContentType: "video/mp4", Data: []byte("vid")},
	}, "sunset", "Travel")

	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	require.Len(t, post.Media, 2)
	assert.Equal(t, 1, post.Media[1].Order)
}

func TestUploadAvatar(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, avatarPath, r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Len(t, r.MultipartForm.File["avatar"], 1)
		_, _ = w.Write([]byte(`{"id":"u1","avatarUrl":"/media/avatars%2Fu1%2F1-me.jpg"}`))
	}))
	defer srv.Close()

	user, err := New(srv.URL, "tok", nil).UploadAvatar(context.Background(), File{Name: "me.jpg", Data: []byte("x")})

	require.NoError(t, err)
	require.NotNil(t, user.AvatarURL)
	assert.Equal(t, "/media/avatars%2Fu1%2F1-me.jpg", *user.AvatarURL)
}

func TestCreatePost_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"validation error: at least one media file is required"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok", nil).CreatePost(context.Background(), nil, "", "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "media file is required")
}

func TestDecodeError_PlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "", nil).UploadAvatar(context.Background(), File{Name: "a.png", Data: []byte("x")})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "bad gateway", apiErr.Message)
}
