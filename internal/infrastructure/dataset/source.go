package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/infrastructure/storage"
)

// Source origins
const (
	OriginHTTP  = "http"
	OriginS3    = "s3"
	OriginFile  = "file"
	OriginCache = "cache"
)

// DefaultMaxBytes caps a dataset body when no limit is configured
const DefaultMaxBytes int64 = 512 << 20

// ErrTooLarge is returned when a source body exceeds the configured limit
var ErrTooLarge = errors.New("dataset exceeds maximum size")

// ErrUnsupportedSource is returned for s3:// sources when no object storage is configured
var ErrUnsupportedSource = errors.New("unsupported dataset source")

// ObjectGetter opens objects in S3-compatible storage
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (*storage.Object, error)
}

// NormalizeSource returns the identity of a source string
func NormalizeSource(source string) string {
	return strings.TrimSpace(source)
}

// OriginOf classifies a source by scheme
func OriginOf(source string) string {
	lower := strings.ToLower(NormalizeSource(source))
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return OriginHTTP
	case strings.HasPrefix(lower, "s3://"):
		return OriginS3
	default:
		return OriginFile
	}
}

// SourceReader fetches raw dataset bytes from any supported origin
type SourceReader struct {
	httpClient *http.Client
	objects    ObjectGetter
	maxBytes   int64
	logger     *zap.Logger
}

// SourceReaderOption configures a SourceReader
type SourceReaderOption func(*SourceReader)

// WithHTTPClient sets the client used for http(s) sources
func WithHTTPClient(client *http.Client) SourceReaderOption {
	return func(r *SourceReader) {
		r.httpClient = client
	}
}

// WithObjectStorage enables s3:// sources
func WithObjectStorage(objects ObjectGetter) SourceReaderOption {
	return func(r *SourceReader) {
		r.objects = objects
	}
}

// WithMaxBytes sets the maximum accepted body size
func WithMaxBytes(n int64) SourceReaderOption {
	return func(r *SourceReader) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithSourceLogger sets the logger
func WithSourceLogger(logger *zap.Logger) SourceReaderOption {
	return func(r *SourceReader) {
		r.logger = logger
	}
}

// NewSourceReader creates a SourceReader
func NewSourceReader(opts ...SourceReaderOption) *SourceReader {
	r := &SourceReader{
		httpClient: http.DefaultClient,
		maxBytes:   DefaultMaxBytes,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fetch reads the whole body of source. The context bounds the fetch.
func (r *SourceReader) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = NormalizeSource(source)
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrUnsupportedSource)
	}

	var (
		data []byte
		err  error
	)
	origin := OriginOf(source)
	switch origin {
	case OriginHTTP:
		data, err = r.fetchHTTP(ctx, source)
	case OriginS3:
		data, err = r.fetchS3(ctx, source)
	default:
		data, err = r.fetchFile(source)
	}
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Dataset fetched",
		zap.String("origin", origin),
		zap.Int("bytes", len(data)),
	)
	return data, nil
}

func (r *SourceReader) fetchHTTP(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, */*")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch dataset: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > r.maxBytes {
		return nil, fmt.Errorf("%w: content length %d", ErrTooLarge, resp.ContentLength)
	}

	return r.readLimited(resp.Body)
}

func (r *SourceReader) fetchS3(ctx context.Context, source string) ([]byte, error) {
	if r.objects == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrUnsupportedSource)
	}
	bucket, key, err := storage.ParseS3URI(source)
	if err != nil {
		return nil, err
	}

	obj, err := r.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer obj.Body.Close()

	if obj.ContentLength > r.maxBytes {
		return nil, fmt.Errorf("%w: content length %d", ErrTooLarge, obj.ContentLength)
	}

	return r.readLimited(obj.Body)
}

func (r *SourceReader) fetchFile(source string) ([]byte, error) {
	path := strings.TrimPrefix(source, "file://")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return r.readLimited(f)
}

// readLimited reads at most maxBytes; one extra byte detects overflow
func (r *SourceReader) readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, r.maxBytes)
	}
	return data, nil
}
