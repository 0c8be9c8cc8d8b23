package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"framefeed/pkg/apiclient"
	"framefeed/pkg/logger"
	"framefeed/pkg/normalize"

	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "upload",
		Usage: "normalize local media and post it to a FrameFeed server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:3000", EnvVars: []string{"FRAMEFEED_API"}, Usage: "server base URL"},
			&cli.StringFlag{Name: "token", Value: "dev-token-secret", EnvVars: []string{"FRAMEFEED_TOKEN"}, Usage: "bearer token"},
			&cli.StringFlag{Name: "ffmpeg", Value: "ffmpeg", EnvVars: []string{"FFMPEG_BINARY"}, Usage: "ffmpeg binary used for video"},
			&cli.Float64Flag{Name: "max-size-mb", Value: 0.2, Usage: "target size for images"},
			&cli.IntFlag{Name: "max-dimension", Value: 1920, Usage: "longest image side"},
		},
		Commands: []*cli.Command{
			{
				Name:      "post",
				Usage:     "create a post from one or more images or videos",
				ArgsUsage: "FILE...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "caption", Aliases: []string{"c"}},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}},
				},
				Action: postAction,
			},
			{
				Name:      "avatar",
				Usage:     "replace the current user's avatar",
				ArgsUsage: "FILE",
				Action:    avatarAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func postAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("at least one file is required", 2)
	}

	n := newNormalizer(c)
	defer n.Close()

	files := make([]apiclient.File, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		f, err := n.File(c.Context, path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	client := apiclient.New(c.String("api"), c.String("token"), nil)
	post, err := client.CreatePost(c.Context, files, c.String("caption"), c.String("tag"))
	if err != nil {
		return err
	}

	fmt.Printf("created post %s with %d media item(s)\n", post.ID, len(post.Media))
	for _, item := range post.Media {
		fmt.Printf("  %d %s %s\n", item.Order, item.Type, item.URL)
	}
	return nil
}

func avatarAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one file is required", 2)
	}

	n := newNormalizer(c)
	defer n.Close()

	f, err := n.File(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return cli.Exit("avatar must be an image", 2)
	}

	user, err := apiclient.New(c.String("api"), c.String("token"), nil).UploadAvatar(c.Context, f)
	if err != nil {
		return err
	}

	avatar := ""
	if user.AvatarURL != nil {
		avatar = *user.AvatarURL
	}
	fmt.Printf("avatar for %s set to %s\n", user.Username, avatar)
	return nil
}

type normalizer struct {
	images     normalize.ImageOptions
	transcoder *normalize.Transcoder
	log        *logger.Logger
}

func newNormalizer(c *cli.Context) *normalizer {
	opts := normalize.DefaultImageOptions()
	opts.MaxSizeMB = c.Float64("max-size-mb")
	opts.MaxWidthOrHeight = c.Int("max-dimension")
	return newNormalizerWith(opts, normalize.FFmpegLoader(c.String("ffmpeg")), logger.New())
}

func newNormalizerWith(opts normalize.ImageOptions, loader normalize.Loader, log *logger.Logger) *normalizer {
	return &normalizer{
		images:     opts,
		transcoder: normalize.NewTranscoder(loader, log),
		log:        log,
	}
}

func (n *normalizer) Close() {
	n.transcoder.Close()
	n.log.Sync()
}

// File reads path and returns the bytes that should be uploaded. Anything the
// normalizer cannot handle or cannot shrink is sent as is.
func (n *normalizer) File(ctx context.Context, path string) (apiclient.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return apiclient.File{}, err
	}

	name := filepath.Base(path)
	contentType := mimetype.Detect(data).String()
	original := apiclient.File{Name: name, ContentType: contentType, Data: data}

	var res *normalize.Result
	switch {
	case strings.HasPrefix(contentType, "image/"):
		res, err = normalize.CompressImage(data, name, n.images)
	case strings.HasPrefix(contentType, "video/"):
		res, err = n.transcoder.Transcode(ctx, data, name)
	default:
		return original, nil
	}
	if err != nil {
		n.log.Warn("normalize %s failed, uploading original: %v", name, err)
		return original, nil
	}

	if len(res.Data) >= len(data) {
		n.log.Info("%s: normalized output is not smaller (%d >= %d bytes), uploading original", name, len(res.Data), len(data))
		return original, nil
	}

	n.log.Info("%s: %d -> %d bytes", name, len(data), len(res.Data))
	return apiclient.File{Name: res.Name, ContentType: res.MimeType, Data: res.Data}, nil
}
