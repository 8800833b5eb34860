package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/pageza/recipebook/backend/config"
	"github.com/pageza/recipebook/backend/internal/types"
)

// ImageRefPrefix is the path prefix of every stored image reference
const ImageRefPrefix = "/images/"

// imageName builds a collision-free file name keeping the original extension
func imageName(originalName string) string {
	return uuid.New().String() + filepath.Ext(originalName)
}

// nameFromRef extracts the stored file name, rejecting refs this store never produced
func nameFromRef(ref string) (string, error) {
	name := strings.TrimPrefix(ref, ImageRefPrefix)
	if name == ref || name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid image reference %q", ref)
	}
	return name, nil
}

// ValidateImage buffers an upload, enforcing the size cap and an image/* content type.
// The returned reader replays the buffered bytes.
func ValidateImage(img *types.ImageUpload, maxBytes int64) (io.Reader, string, error) {
	if img.Content == nil {
		return nil, "", invalid("image", "missing image content")
	}
	if maxBytes > 0 && img.Size > maxBytes {
		return nil, "", invalid("image", "image exceeds %d bytes", maxBytes)
	}

	limit := maxBytes
	if limit <= 0 {
		limit = config.DefaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(img.Content, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, "", invalid("image", "image exceeds %d bytes", limit)
	}
	if len(data) == 0 {
		return nil, "", invalid("image", "image is empty")
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, "", invalid("image", "unsupported content type %s", mtype.String())
	}

	return bytes.NewReader(data), mtype.String(), nil
}

// LocalImageStore writes images into a directory of an afero filesystem
type LocalImageStore struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewLocalImageStore creates a store rooted at dir
func NewLocalImageStore(fs afero.Fs, dir string, logger *slog.Logger) *LocalImageStore {
	return &LocalImageStore{fs: fs, dir: dir, logger: logger.With("component", "images")}
}

// Save writes the content to <dir>/<uuid><ext>
func (s *LocalImageStore) Save(ctx context.Context, originalName, contentType string, content io.Reader) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	name := imageName(originalName)
	full := filepath.Join(s.dir, name)

	f, err := s.fs.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(full)
		return "", fmt.Errorf("close image file: %w", err)
	}

	s.logger.DebugContext(ctx, "image stored", "path", full, "content_type", contentType)
	return ImageRefPrefix + name, nil
}

// Delete removes a stored image; a missing file is not an error
func (s *LocalImageStore) Delete(ctx context.Context, ref string) error {
	name, err := nameFromRef(ref)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}

// S3API is the subset of the S3 client used for images
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore writes images to <bucket>/images/<uuid><ext>
type S3ImageStore struct {
	client S3API
	bucket string
	logger *slog.Logger
}

// NewS3ImageStore creates a store from the shared S3 configuration
func NewS3ImageStore(cfg *config.S3Config, logger *slog.Logger) *S3ImageStore {
	return NewS3ImageStoreWithClient(cfg.Client, cfg.BucketName, logger)
}

// NewS3ImageStoreWithClient creates a store over any S3API implementation
func NewS3ImageStoreWithClient(client S3API, bucket string, logger *slog.Logger) *S3ImageStore {
	return &S3ImageStore{client: client, bucket: bucket, logger: logger.With("component", "images")}
}

func objectKey(name string) string {
	return path.Join(strings.Trim(ImageRefPrefix, "/"), name)
}

// Save uploads the content and returns the same relative reference as the local store
func (s *S3ImageStore) Save(ctx context.Context, originalName, contentType string, content io.Reader) (string, error) {
	name := imageName(originalName)
	key := objectKey(name)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        content,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.DebugContext(ctx, "image uploaded", "bucket", s.bucket, "key", key)
	return ImageRefPrefix + name, nil
}

// Delete removes an uploaded object
func (s *S3ImageStore) Delete(ctx context.Context, ref string) error {
	name, err := nameFromRef(ref)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
