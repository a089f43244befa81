package objstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestClient_PutFileSigned(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody string
		gotHash string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method=%s", r.Method)
		}
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotHash = r.Header.Get("x-amz-content-sha256")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer srv.Close()

	c, err := New(Config{Endpoint: srv.URL, Bucket: "runs", AccessKeyID: "AKID", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.now = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

	p := filepath.Join(t.TempDir(), "ticks-2024-03-01-09.jsonl.zst")
	if err := os.WriteFile(p, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.PutFile(context.Background(), "/run 1/ticks/x.zst", p); err != nil {
		t.Fatalf("put: %v", err)
	}
	if gotPath != "/runs/run%201/ticks/x.zst" {
		t.Fatalf("path=%s", gotPath)
	}
	if gotBody != "payload" {
		t.Fatalf("body=%q", gotBody)
	}
	if len(gotHash) != 64 {
		t.Fatalf("payload hash=%q", gotHash)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKID/20240301/auto/s3/aws4_request, SignedHeaders=host;x-amz-content-sha256;x-amz-date, Signature=") {
		t.Fatalf("auth=%s", gotAuth)
	}
}

func TestClient_PutFileReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()
	c, err := New(Config{Endpoint: srv.URL, Bucket: "runs", AccessKeyID: "a", SecretAccessKey: "b"})
	if err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "f")
	_ = os.WriteFile(p, []byte("x"), 0o644)
	err = c.PutFile(context.Background(), "k", p)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err=%v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(Config{Endpoint: "example.com", Bucket: "b"}); err == nil {
		t.Fatalf("expected error without keys")
	}
}

type fakeUploader struct {
	mu    sync.Mutex
	keys  []string
	fails int
}

func (f *fakeUploader) PutFile(_ context.Context, key, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("flaky")
	}
	f.keys = append(f.keys, key)
	return nil
}

func TestMirror_UploadsRelativeKeysWithRetry(t *testing.T) {
	base := t.TempDir()
	seg := filepath.Join(base, "runs", "r1", "ticks", "ticks-2024-03-01-09.jsonl.zst")
	if err := os.MkdirAll(filepath.Dir(seg), 0o755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(seg, []byte("x"), 0o644)

	up := &fakeUploader{fails: 1}
	m := NewMirror(up, base, "brickworld/", 1, nil)
	m.backoff = time.Millisecond
	m.Enqueue(seg)
	m.Enqueue(filepath.Join(t.TempDir(), "outside.zst"))
	m.Close()

	if len(up.keys) != 1 || up.keys[0] != "brickworld/runs/r1/ticks/ticks-2024-03-01-09.jsonl.zst" {
		t.Fatalf("keys=%v", up.keys)
	}
	st := m.Stats()
	if st.UploadedTotal != 1 || st.FailedTotal != 1 {
		t.Fatalf("stats=%+v", st)
	}
	m.Close()
}
