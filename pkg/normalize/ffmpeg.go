package normalize

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ClipSeconds is how much of a video survives normalization.
const ClipSeconds = 10

// FFmpegEngine runs the ffmpeg binary against files in a private scratch dir.
type FFmpegEngine struct {
	binary string
	dir    string
}

// FFmpegLoader resolves binary on PATH and creates the scratch dir.
func FFmpegLoader(binary string) Loader {
	return func(ctx context.Context) (Engine, error) {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not available: %w", err)
		}
		dir, err := os.MkdirTemp("", "framefeed-transcode-")
		if err != nil {
			return nil, fmt.Errorf("failed to create scratch dir: %w", err)
		}
		return &FFmpegEngine{binary: path, dir: dir}, nil
	}
}

func (e *FFmpegEngine) WriteFile(name string, data []byte) error {
	return os.WriteFile(e.path(name), data, 0o600)
}

func (e *FFmpegEngine) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(e.path(name))
}

func (e *FFmpegEngine) DeleteFile(name string) error {
	err := os.Remove(e.path(name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (e *FFmpegEngine) Exec(ctx context.Context, input, output string) error {
	args := TranscodeArgs(e.path(input), e.path(output))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(stderr.Bytes(), 512))
	}
	return nil
}

// TranscodeArgs is the fixed transform: first ClipSeconds seconds, H.264 at
// CRF 28 with the fast preset, moov atom up front for progressive playback.
func TranscodeArgs(input, output string) []string {
	return ffmpeg.Input(input).
		Output(output, ffmpeg.KwArgs{
			"t":        ClipSeconds,
			"vcodec":   "libx264",
			"crf":      28,
			"preset":   "fast",
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		GetArgs()
}

func (e *FFmpegEngine) path(name string) string {
	return filepath.Join(e.dir, filepath.Base(name))
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}
