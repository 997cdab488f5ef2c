package adapter

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// ErrObjectNotFound is returned by Get when the key does not exist
var ErrObjectNotFound = goerr.New("object not found")

// Writer stores an object when closed. Abort discards everything written
// and leaves any existing object under the key untouched.
type Writer interface {
	io.WriteCloser
	Abort()
}

// Storage is the interface for interaction history snapshots
type Storage interface {
	// Put returns a writer that stores a snapshot under key once closed
	Put(ctx context.Context, key string) (Writer, error)
	// Get opens a stored snapshot
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage interface using Cloud Storage
type storageClient struct {
	bucketName string
	prefix     string
	client     *storage.Client
}

type StorageOption func(*storageClient)

// WithPrefix stores every object below prefix in the bucket
func WithPrefix(prefix string) StorageOption {
	return func(s *storageClient) {
		s.prefix = strings.Trim(prefix, "/")
	}
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, bucketName string, opts ...StorageOption) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	s := &storageClient{
		bucketName: bucketName,
		client:     client,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *storageClient) object(key string) *storage.ObjectHandle {
	name := key
	if s.prefix != "" {
		name = path.Join(s.prefix, key)
	}
	return s.client.Bucket(s.bucketName).Object(name)
}

// gcsWriter commits the upload on Close. Cancelling its context before
// Close makes the upload fail, so no object is created.
type gcsWriter struct {
	*storage.Writer
	cancel context.CancelFunc
}

func (w *gcsWriter) Close() error {
	defer w.cancel()
	return w.Writer.Close()
}

func (w *gcsWriter) Abort() {
	w.cancel()
	_ = w.Writer.Close()
}

func (s *storageClient) Put(ctx context.Context, key string) (Writer, error) {
	ctx, cancel := context.WithCancel(ctx)
	writer := s.object(key).NewWriter(ctx)
	writer.ContentType = "application/json"
	return &gcsWriter{Writer: writer, cancel: cancel}, nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(ErrObjectNotFound, "snapshot not found in bucket", goerr.V("bucket", s.bucketName), goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key))
	}

	return reader, nil
}

// fileStorage implements Storage on a local directory
type fileStorage struct {
	dir string
}

// NewFileStorage stores snapshots as files under dir
func NewFileStorage(dir string) (Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("dir", dir))
	}
	return &fileStorage{dir: dir}, nil
}

func (s *fileStorage) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", goerr.New("invalid storage key", goerr.V("key", key))
	}
	return filepath.Join(s.dir, filepath.FromSlash(key)), nil
}

// fileWriter writes to a temp file next to path and renames it into place
// on Close
type fileWriter struct {
	tmp  *os.File
	path string
}

func (w *fileWriter) Write(p []byte) (int, error) {
	return w.tmp.Write(p)
}

func (w *fileWriter) Close() error {
	if err := w.tmp.Close(); err != nil {
		os.Remove(w.tmp.Name())
		return goerr.Wrap(err, "failed to close snapshot file", goerr.V("path", w.path))
	}
	if err := os.Rename(w.tmp.Name(), w.path); err != nil {
		os.Remove(w.tmp.Name())
		return goerr.Wrap(err, "failed to replace snapshot file", goerr.V("path", w.path))
	}
	return nil
}

func (w *fileWriter) Abort() {
	w.tmp.Close()
	os.Remove(w.tmp.Name())
}

func (s *fileStorage) Put(_ context.Context, key string) (Writer, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create storage directory", goerr.V("key", key))
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create snapshot file", goerr.V("key", key))
	}
	return &fileWriter{tmp: tmp, path: p}, nil
}

func (s *fileStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, goerr.Wrap(ErrObjectNotFound, "snapshot not found", goerr.V("key", key))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open snapshot file", goerr.V("key", key))
	}
	return f, nil
}
