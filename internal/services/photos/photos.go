// Package photos stores profile photos in S3-compatible object storage and
// produces the URL saved on the user's photo_url field. Uploads keep the
// original plus a small and a large JPEG variant for avatar rendering.
package photos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrUploadFailed = errors.New("photo upload failed")
	ErrDeleteFailed = errors.New("photo delete failed")
	ErrInvalidImage = errors.New("invalid image")
)

type variant struct {
	suffix string
	dim    int
}

var variants = []variant{
	{suffix: "small", dim: 64},
	{suffix: "large", dim: 256},
}

type Service struct {
	client *minio.Client
	bucket string
	host   string
	useSSL bool
}

// New connects to the object store configured through MINIO_* variables.
func New() (*Service, error) {
	endpoint := getEnv("MINIO_ENDPOINT", "localhost:9000")
	accessKey := getEnv("MINIO_ACCESS_KEY", "minioadmin")
	secretKey := getEnv("MINIO_SECRET_KEY", "minioadmin")
	bucket := getEnv("MINIO_BUCKET", "profile-photos")
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store: %w", err)
	}

	return &Service{
		client: client,
		bucket: bucket,
		host:   endpoint,
		useSSL: useSSL,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnsureBucket creates the photo bucket if it does not exist.
func (s *Service) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Store uploads a user's photo with resized variants and returns the public
// URL of the original. The object name is derived from the user id so a new
// upload replaces the previous photo.
func (s *Service) Store(ctx context.Context, userID string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, _, err := image.Decode(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	objectName := objectFor(userID, contentType)
	if err := s.put(ctx, objectName, data, contentType); err != nil {
		return "", err
	}

	for _, v := range variants {
		resized, err := resize(data, v.dim)
		if err != nil {
			continue
		}
		_ = s.put(ctx, variantName(objectName, v.suffix), resized, "image/jpeg")
	}

	return s.publicURL(objectName), nil
}

// Remove deletes a user's photo and its variants. The object name is derived
// from the stored URL so the extension of the original upload is preserved.
func (s *Service) Remove(ctx context.Context, userID, photoURL string) error {
	objectName := "users/" + userID + filepath.Ext(photoURL)
	if filepath.Ext(photoURL) == "" {
		objectName = objectFor(userID, "image/jpeg")
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	for _, v := range variants {
		_ = s.client.RemoveObject(ctx, s.bucket, variantName(objectName, v.suffix), minio.RemoveObjectOptions{})
	}
	return nil
}

func (s *Service) put(ctx context.Context, objectName string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (s *Service) publicURL(objectName string) string {
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   s.host,
		Path:   "/" + s.bucket + "/" + objectName,
	}).String()
}

func objectFor(userID, contentType string) string {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	}
	return "users/" + userID + ext
}

func variantName(objectName, suffix string) string {
	ext := filepath.Ext(objectName)
	return strings.TrimSuffix(objectName, ext) + "_" + suffix + ext
}

func resize(data []byte, dim int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	fitted := imaging.Fit(img, dim, dim, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
