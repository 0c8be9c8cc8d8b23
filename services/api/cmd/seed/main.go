package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"time"

	"framefeed/pkg/cache"
	"framefeed/pkg/config"
	"framefeed/pkg/database"
	"framefeed/pkg/logger"
	"framefeed/pkg/mediaurl"
	"framefeed/pkg/normalize"
	"framefeed/pkg/s3"
	"framefeed/services/api/internal/entity"
	feedcache "framefeed/services/api/internal/repo/cache"
	"framefeed/services/api/internal/repo/persistent"
	"framefeed/services/api/internal/usecase"

	"github.com/disintegration/imaging"
)

var tags = []string{"Travel", "Food", entity.DefaultTag}

type seedUser struct {
	subject     string
	username    string
	displayName string
}

func main() {
	var (
		postsPerUser = flag.Int("posts", 3, "posts to create per user")
		offline      = flag.Bool("offline", false, "generate images locally instead of fetching from cataas.com")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	defer log.Sync()

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	s3Client, err := s3.NewClient(cfg, log)
	if err != nil {
		log.Error("Failed to create S3 client: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Warn("Redis unavailable, feed cache will not be cleared: %v", err)
		redisClient = nil
	}

	postRepo := persistent.NewPostRepository(db)
	userRepo := persistent.NewUserRepository(db)
	feedCache := feedcache.NewFeedCache(redisClient, cfg.FeedCacheTTL, log)
	urls := mediaurl.New(cfg.S3Endpoint, s3Client.Bucket())

	s := &seeder{
		users:      usecase.NewUserUseCase(userRepo, postRepo, urls, log),
		uploads:    usecase.NewUploadUseCase(postRepo, userRepo, s3Client, feedCache, nil, urls, cfg.MaxFilesPerPost, log),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		offline:    *offline,
		log:        log,
	}

	if err := s.run(context.Background(), *postsPerUser); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

type seeder struct {
	users      usecase.UserUseCase
	uploads    usecase.UploadUseCase
	httpClient *http.Client
	offline    bool
	log        *logger.Logger
}

func (s *seeder) run(ctx context.Context, postsPerUser int) error {
	testUsers := []seedUser{
		{"seed-alice", "alice_cat", "Alice"},
		{"seed-bob", "bob_cat", "Bob"},
		{"seed-charlie", "charlie_cat", "Charlie"},
		{"seed-diana", "diana_cat", "Diana"},
		{"seed-eve", "eve_cat", "Eve"},
	}

	for _, u := range testUsers {
		if err := s.ensureUser(ctx, u); err != nil {
			return err
		}

		for i := 0; i < postsPerUser; i++ {
			if err := s.createPost(ctx, u, i); err != nil {
				s.log.Error("Failed to create post %d for user %s: %v", i+1, u.username, err)
			}
		}
	}

	// Everyone follows everyone after them in the list.
	for i := range testUsers {
		for j := i + 1; j < len(testUsers); j++ {
			if err := s.users.Follow(ctx, testUsers[i].subject, testUsers[j].subject); err != nil {
				s.log.Error("Failed to follow %s -> %s: %v", testUsers[i].username, testUsers[j].username, err)
			}
		}
	}

	s.log.Info("Created test follows")
	return nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser) error {
	current, err := s.users.GetCurrentUser(ctx, u.subject)
	if err != nil {
		return fmt.Errorf("ensure user %s: %w", u.username, err)
	}
	if current.Username == u.username {
		s.log.Info("User %s already exists, skipping", u.username)
		return nil
	}

	username, displayName := u.username, u.displayName
	if _, err := s.users.UpdateCurrentUser(ctx, u.subject, entity.UserUpdate{
		Username:    &username,
		DisplayName: &displayName,
	}); err != nil {
		return fmt.Errorf("update user %s: %w", u.username, err)
	}

	s.log.Info("Created user: %s (%s)", u.username, u.subject)
	return nil
}

func (s *seeder) createPost(ctx context.Context, u seedUser, index int) error {
	raw, err := s.catImage(u.username, index)
	if err != nil {
		return err
	}

	compressed, err := normalize.CompressImage(raw, fmt.Sprintf("seed_%d.jpg", index), normalize.DefaultImageOptions())
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	post, err := s.uploads.CreatePostWithMedia(ctx, u.subject, entity.UploadRequest{
		Files:   []entity.UploadFile{bytesFile(compressed.Name, compressed.MimeType, compressed.Data)},
		Caption: fmt.Sprintf("Cat #%d by %s", index+1, u.displayName),
		Tag:     tags[index%len(tags)],
	})
	if err != nil {
		return err
	}

	s.log.Info("Created post %s by %s (%d bytes, quality %d)", post.ID, u.username, len(compressed.Data), compressed.Quality)
	return nil
}

func (s *seeder) catImage(username string, index int) ([]byte, error) {
	if s.offline {
		return placeholder(index)
	}

	cataasURL := "https://cataas.com/cat"
	if index%2 == 0 {
		cataasURL += fmt.Sprintf("/says/Hello from %s", username)
	}

	s.log.Info("Fetching cat image from %s", cataasURL)
	resp, err := s.httpClient.Get(cataasURL)
	if err != nil {
		s.log.Warn("cataas unavailable, using a placeholder: %v", err)
		return placeholder(index)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("cataas returned status %d, using a placeholder", resp.StatusCode)
		return placeholder(index)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return placeholder(index)
	}
	return data, nil
}

func placeholder(index int) ([]byte, error) {
	shade := uint8(40 + (index*53)%200)
	img := imaging.New(800, 600, color.NRGBA{R: shade, G: 120, B: 255 - shade, A: 255})
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func bytesFile(name, contentType string, data []byte) entity.UploadFile {
	return entity.UploadFile{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
