package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/hongsenwang01/knowledge-base/internal/config"
)

func TestS3Store_Key(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "docs/a.txt"},
		{"kb", "kb/docs/a.txt"},
		{"kb/", "kb/docs/a.txt"},
	}

	for _, tt := range tests {
		s := NewS3Store(s3.New(s3.Options{Region: "us-east-1"}), "bucket", tt.prefix)
		if got := s.key("docs/a.txt"); got != tt.want {
			t.Errorf("key() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"typed NoSuchKey", &types.NoSuchKey{}, true},
		{"typed NotFound", fmt.Errorf("head: %w", &types.NotFound{}), true},
		{"api error code", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"raw status", errors.New("operation error S3: GetObject, https response error StatusCode: 404"), true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"network", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFoundError(tt.err); got != tt.want {
				t.Errorf("isNotFoundError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsPreconditionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"api error code", &smithy.GenericAPIError{Code: "PreconditionFailed"}, true},
		{"raw status", errors.New("operation error S3: PutObject, https response error StatusCode: 412"), true},
		{"not found", &smithy.GenericAPIError{Code: "NoSuchKey"}, false},
		{"network", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPreconditionFailed(tt.err); got != tt.want {
				t.Errorf("isPreconditionFailed(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// fakeS3 serves HEAD and PUT for path-style object keys.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]bool
	// hidden keys exist but are reported missing by HEAD.
	hidden      map[string]bool
	puts        int
	ifNoneMatch []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.URL.Path
	switch r.Method {
	case http.MethodHead:
		if f.objects[key] && !f.hidden[key] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.puts++
		f.ifNoneMatch = append(f.ifNoneMatch, r.Header.Get("If-None-Match"))
		if r.Header.Get("If-None-Match") == "*" && f.objects[key] {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusPreconditionFailed)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
				`<Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`)
			return
		}
		f.objects[key] = true
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Store_WriteNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]bool{}, hidden: map[string]bool{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
	})
	store := NewS3Store(client, "bucket", "kb")

	loc, err := store.Write(ctx, strings.NewReader("first"), "docs", "a.txt")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if loc != "docs/a.txt" {
		t.Errorf("Write() location = %q, want docs/a.txt", loc)
	}
	if !fake.objects["/bucket/kb/docs/a.txt"] {
		t.Fatalf("object not stored, have %v", fake.objects)
	}
	if len(fake.ifNoneMatch) != 1 || fake.ifNoneMatch[0] != "*" {
		t.Errorf("If-None-Match headers = %q, want [*]", fake.ifNoneMatch)
	}

	t.Run("existing key is refused before upload", func(t *testing.T) {
		_, err := store.Write(ctx, strings.NewReader("second"), "docs", "a.txt")
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("Write() over existing key error = %v, want already exists", err)
		}
		if fake.puts != 1 {
			t.Errorf("PUT requests = %d, want 1", fake.puts)
		}
	})

	t.Run("key created after the check is refused by the server", func(t *testing.T) {
		fake.mu.Lock()
		fake.objects["/bucket/kb/docs/b.txt"] = true
		fake.hidden["/bucket/kb/docs/b.txt"] = true
		fake.mu.Unlock()

		_, err := store.Write(ctx, strings.NewReader("late"), "docs", "b.txt")
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("Write() racing an existing key error = %v, want already exists", err)
		}
	})
}

func TestNewContentStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := NewContentStoreFromConfig(ctx, config.StorageConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewContentStoreFromConfig() error = %v", err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("store = %T, want *MemoryStore", s)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		s, err := NewContentStoreFromConfig(ctx, config.StorageConfig{Type: "filesystem", Root: t.TempDir()})
		if err != nil {
			t.Fatalf("NewContentStoreFromConfig() error = %v", err)
		}
		if _, ok := s.(*FileSystemStore); !ok {
			t.Errorf("store = %T, want *FileSystemStore", s)
		}
	})

	t.Run("s3 with static credentials", func(t *testing.T) {
		s, err := NewContentStoreFromConfig(ctx, config.StorageConfig{
			Type:              "s3",
			S3Bucket:          "kb-files",
			S3Prefix:          "prod",
			S3Region:          "us-east-1",
			S3Endpoint:        "http://127.0.0.1:9000",
			S3ForcePathStyle:  true,
			S3AccessKeyID:     "minio",
			S3SecretAccessKey: "minio123",
		})
		if err != nil {
			t.Fatalf("NewContentStoreFromConfig() error = %v", err)
		}
		store, ok := s.(*S3Store)
		if !ok {
			t.Fatalf("store = %T, want *S3Store", s)
		}
		if store.bucket != "kb-files" || store.prefix != "prod/" {
			t.Errorf("bucket/prefix = %q/%q", store.bucket, store.prefix)
		}
	})

	errorCases := []config.StorageConfig{
		{Type: "filesystem"},
		{Type: "s3"},
		{Type: "ftp"},
	}
	for _, cfg := range errorCases {
		if _, err := NewContentStoreFromConfig(ctx, cfg); err == nil {
			t.Errorf("NewContentStoreFromConfig(%+v) expected error", cfg)
		}
	}
}
