package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"framefeed/pkg/apperr"
	"framefeed/pkg/config"
	"framefeed/pkg/logger"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sony/gobreaker"
)

// Object is blob store bookkeeping for a single key. It is never persisted.
type Object struct {
	Key          string
	URL          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Download is an open object body plus the headers a proxy relays.
// The caller must close Body.
type Download struct {
	Body          io.ReadCloser
	StatusCode    int
	ContentType   string
	ContentLength int64
	ContentRange  string
	AcceptRanges  string
}

type Client struct {
	api      s3iface.S3API
	uploader *s3manager.Uploader
	bucket   string
	endpoint string
	region   string
	breaker  *gobreaker.CircuitBreaker
	logger   *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) (*Client, error) {
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is not configured")
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		),
	}

	// MinIO and other S3-compatible stores need path-style addressing
	if cfg.S3Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.S3Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		if cfg.S3UseSSL == "false" {
			awsConfig.DisableSSL = aws.Bool(true)
		}
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	api := s3.New(sess)
	client := &Client{
		api:      api,
		uploader: s3manager.NewUploaderWithClient(api),
		bucket:   cfg.S3Bucket,
		endpoint: cfg.S3Endpoint,
		region:   cfg.S3Region,
		logger:   log,
	}
	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "s3",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFound(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("[S3] circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// Ensure bucket exists (for MinIO)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := api.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
		if _, err := api.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
			log.Warn("[S3] bucket %s not reachable and could not be created: %v", cfg.S3Bucket, err)
		}
	}

	return client, nil
}

func (c *Client) Bucket() string {
	return c.bucket
}

// ObjectURL is the absolute address of key as the store itself serves it.
func (c *Client) ObjectURL(key string) string {
	if c.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", c.endpoint, c.bucket, escapeKey(key))
	}
	region := c.region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.bucket, region, escapeKey(key))
}

func (c *Client) UploadFile(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	_, err := c.execute(func() (interface{}, error) {
		return c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        body,
			ContentType: aws.String(contentType),
		})
	})
	if err != nil {
		return "", c.wrap("put", key, err)
	}
	return c.ObjectURL(key), nil
}

// GetFile reads object metadata without fetching the body.
func (c *Client) GetFile(ctx context.Context, key string) (*Object, error) {
	res, err := c.execute(func() (interface{}, error) {
		return c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		return nil, c.wrap("head", key, err)
	}
	out := res.(*s3.HeadObjectOutput)
	return &Object{
		Key:          key,
		URL:          c.ObjectURL(key),
		Size:         aws.Int64Value(out.ContentLength),
		LastModified: aws.TimeValue(out.LastModified),
		ContentType:  aws.StringValue(out.ContentType),
	}, nil
}

func (c *Client) DeleteFile(ctx context.Context, key string) error {
	_, err := c.execute(func() (interface{}, error) {
		return c.api.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
	})
	if err != nil {
		return c.wrap("delete", key, err)
	}
	return nil
}

func (c *Client) PresignURL(key string, ttl time.Duration) (string, error) {
	req, _ := c.api.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	signed, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return signed, nil
}

func (c *Client) ListFiles(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	_, err := c.execute(func() (interface{}, error) {
		objects = objects[:0]
		return nil, c.api.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
			Bucket: aws.String(c.bucket),
			Prefix: aws.String(prefix),
		}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, item := range page.Contents {
				key := aws.StringValue(item.Key)
				objects = append(objects, Object{
					Key:          key,
					URL:          c.ObjectURL(key),
					Size:         aws.Int64Value(item.Size),
					LastModified: aws.TimeValue(item.LastModified),
				})
			}
			return true
		})
	})
	if err != nil {
		return nil, c.wrap("list", prefix, err)
	}
	return objects, nil
}

// Download opens key for reading, forwarding rangeHeader verbatim when set.
// StatusCode is the store's own status, or 206/200 when it gave none.
func (c *Client) Download(ctx context.Context, key, rangeHeader string) (*Download, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if rangeHeader != "" {
		input.Range = aws.String(rangeHeader)
	}

	var status int
	res, err := c.execute(func() (interface{}, error) {
		req, out := c.api.GetObjectRequest(input)
		req.SetContext(ctx)
		if err := req.Send(); err != nil {
			return nil, err
		}
		if req.HTTPResponse != nil {
			status = req.HTTPResponse.StatusCode
		}
		return out, nil
	})
	if err != nil {
		return nil, c.wrap("get", key, err)
	}

	out := res.(*s3.GetObjectOutput)
	if status == 0 {
		status = http.StatusOK
		if rangeHeader != "" {
			status = http.StatusPartialContent
		}
	}

	return &Download{
		Body:          out.Body,
		StatusCode:    status,
		ContentType:   aws.StringValue(out.ContentType),
		ContentLength: aws.Int64Value(out.ContentLength),
		ContentRange:  aws.StringValue(out.ContentRange),
		AcceptRanges:  aws.StringValue(out.AcceptRanges),
	}, nil
}

// IsNotFound reports whether err is the store saying the key does not exist.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return true
	}
	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return true
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

func (c *Client) execute(fn func() (interface{}, error)) (interface{}, error) {
	return c.breaker.Execute(fn)
}

func (c *Client) wrap(op, key string, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %s", apperr.ErrNotFound, key)
	}
	return fmt.Errorf("%w: s3 %s %s: %v", apperr.ErrUpstream, op, key, err)
}

func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
