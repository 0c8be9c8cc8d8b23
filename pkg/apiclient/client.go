// Package apiclient posts normalized media to the upload endpoints.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	postsMediaPath = "/api/posts/media"
	avatarPath     = "/api/users/current/avatar"
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type MediaItem struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Type  string `json:"type"`
	Order int    `json:"order"`
}

type Post struct {
	ID        string      `json:"id"`
	UserID    string      `json:"userId"`
	Media     []MediaItem `json:"media"`
	Caption   string      `json:"caption"`
	Tag       string      `json:"tag"`
	CreatedAt time.Time   `json:"createdAt"`
}

type User struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl,omitempty"`
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// CreatePost uploads files as one post. Files keep the order given.
func (c *Client) CreatePost(ctx context.Context, files []File, caption, tag string) (*Post, error) {
	fields := map[string]string{"caption": caption}
	if tag != "" {
		fields["tag"] = tag
	}

	var post Post
	if err := c.postMultipart(ctx, postsMediaPath, "media", files, fields, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UploadAvatar(ctx context.Context, file File) (*User, error) {
	var user User
	if err := c.postMultipart(ctx, avatarPath, "avatar", []File{file}, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) postMultipart(ctx context.Context, path, field string, files []File, fields map[string]string, out interface{}) error {
	body, contentType, err := encodeForm(field, files, fields)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func encodeForm(field string, files []File, fields map[string]string) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(raw))
	}
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Error}
}
