package normalize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"framefeed/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var ErrTranscoderClosed = errors.New("transcoder closed")

// Engine is a transcoding runtime with its own scratch file space.
// It is not safe for concurrent use; the Transcoder serializes access.
type Engine interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error
	Exec(ctx context.Context, input, output string) error
}

// Loader brings up an Engine. It may be slow.
type Loader func(ctx context.Context) (Engine, error)

type job struct {
	ctx    context.Context
	data   []byte
	name   string
	result chan jobResult
}

type jobResult struct {
	res *Result
	err error
}

// Transcoder runs video jobs one at a time, in arrival order, on a single
// worker goroutine. The engine is loaded on first use and reused after.
type Transcoder struct {
	loader Loader
	logger *logger.Logger

	loads  singleflight.Group
	mu     sync.Mutex
	engine Engine

	jobs      chan *job
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewTranscoder(loader Loader, log *logger.Logger) *Transcoder {
	t := &Transcoder{
		loader: loader,
		logger: log,
		jobs:   make(chan *job),
		quit:   make(chan struct{}),
	}
	t.wg.Add(1)
	go t.run()
	return t
}

// Warm loads the engine ahead of the first job. Concurrent callers share one
// in-flight load. A failed load is not remembered.
func (t *Transcoder) Warm(ctx context.Context) error {
	_, err := t.engineFor(ctx)
	return err
}

// engineFor returns the shared engine, loading it if needed. The load runs
// detached from ctx so one caller giving up does not fail the others.
func (t *Transcoder) engineFor(ctx context.Context) (Engine, error) {
	t.mu.Lock()
	engine := t.engine
	t.mu.Unlock()
	if engine != nil {
		return engine, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := t.loads.DoChan("engine", func() (interface{}, error) {
		t.mu.Lock()
		if t.engine != nil {
			e := t.engine
			t.mu.Unlock()
			return e, nil
		}
		t.mu.Unlock()

		e, err := t.loader(loadCtx)
		if err != nil {
			return nil, err
		}

		t.mu.Lock()
		t.engine = e
		t.mu.Unlock()
		t.logger.Info("[TRANSCODER] engine loaded")
		return e, nil
	})

	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, fmt.Errorf("failed to load transcoding engine: %w", r.Err)
		}
		return r.Val.(Engine), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Transcode queues data behind any jobs already waiting and blocks until it
// is processed or ctx is done. A caller that gives up does not stall the queue.
func (t *Transcoder) Transcode(ctx context.Context, data []byte, name string) (*Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	j := &job{ctx: ctx, data: data, name: name, result: make(chan jobResult, 1)}

	select {
	case t.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.quit:
		return nil, ErrTranscoderClosed
	}

	select {
	case r := <-j.result:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Transcoder) Close() {
	t.closeOnce.Do(func() {
		close(t.quit)
	})
	t.wg.Wait()
}

func (t *Transcoder) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.quit:
			return
		case j := <-t.jobs:
			if j.ctx.Err() != nil {
				j.result <- jobResult{err: j.ctx.Err()}
				continue
			}
			res, err := t.process(j)
			j.result <- jobResult{res: res, err: err}
		}
	}
}

func (t *Transcoder) process(j *job) (*Result, error) {
	engine, err := t.engineFor(j.ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	input := "input_" + id + ".mp4"
	output := "output_" + id + ".mp4"

	defer func() {
		for _, name := range []string{input, output} {
			if err := engine.DeleteFile(name); err != nil {
				t.logger.Debug("[TRANSCODER] scratch %s not removed: %v", name, err)
			}
		}
	}()

	if err := engine.WriteFile(input, j.data); err != nil {
		return nil, fmt.Errorf("failed to stage %s: %w", j.name, err)
	}
	if err := engine.Exec(j.ctx, input, output); err != nil {
		t.logger.Error("[TRANSCODER] transcode of %s failed: %v", j.name, err)
		return nil, fmt.Errorf("failed to transcode %s: %w", j.name, err)
	}
	data, err := engine.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcoded %s: %w", j.name, err)
	}

	return &Result{Data: data, Name: mp4Name(j.name), MimeType: MimeMP4}, nil
}

func mp4Name(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "video"
	}
	return base + ".mp4"
}
