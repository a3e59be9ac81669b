package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/avast/retry-go/v4"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt reads an integer environment variable. Unset or malformed values
// yield fallback.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("Ignoring malformed integer environment variable.", "key", key, "value", value)
		return fallback
	}
	return n
}

// ParseGSURI splits "gs://bucket/path/to/object" into bucket and object name.
func ParseGSURI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// URI: %q", uri)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gs:// URI needs a bucket and an object: %q", uri)
	}
	return bucket, object, nil
}

// GSURI is the inverse of ParseGSURI.
func GSURI(bucket, object string) string {
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}

// ReadObject downloads an object into memory, retrying transient failures.
// A missing object is returned immediately as storage.ErrObjectNotExist.
func ReadObject(ctx context.Context, client *storage.Client, bucket, object string, attempts uint) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
			if err != nil {
				if errors.Is(err, storage.ErrObjectNotExist) {
					return nil, retry.Unrecoverable(err)
				}
				return nil, fmt.Errorf("failed to open gs://%s/%s: %w", bucket, object, err)
			}
			defer r.Close()
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read gs://%s/%s: %w", bucket, object, err)
			}
			return data, nil
		},
		retry.Context(ctx),
		retry.Attempts(max(attempts, 1)),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("GCS read failed, will retry.", "gcsObject", object, "attempt", n+1, "error", err)
		}),
	)
}

// SaveToGCSAtomically writes content to a GCS object only if it doesn't already exist.
// An existing object is not an error, so replays of the same request are harmless.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, content []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if isPreconditionFailed(err) {
			slog.Info("SKIPPING: Object already exists.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
