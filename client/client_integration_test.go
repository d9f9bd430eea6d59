//go:build integration

package client_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/adamwoolhether/httpcall/client"
)

func TestIntegration_Get_RemoteText(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	resp := client.Get(t.Context(), c, "https://go.dev/VERSION?", client.Text(),
		client.WithQuery(map[string]string{"m": "text"}))
	if !resp.IsOK() {
		t.Fatalf("expected OK, got %d: %v", resp.Code, resp.Err)
	}

	if !strings.HasPrefix(resp.Data, "go") {
		t.Errorf("expected content to start with %q, got %q", "go", resp.Data)
	}
}

func TestIntegration_Get_RemoteTempFile(t *testing.T) {
	c, err := client.Build(client.WithTempDir(t.TempDir()))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	resp := client.Get(t.Context(), c, "https://go.dev/VERSION?m=text", client.TempFile(client.WithProgress()))
	if !resp.IsOK() {
		t.Fatalf("expected OK, got %d: %v", resp.Code, resp.Err)
	}

	got, err := os.ReadFile(resp.Data.Path)
	if err != nil {
		t.Fatalf("reading spooled file: %v", err)
	}
	if int64(len(got)) != resp.Data.Size || len(got) == 0 {
		t.Errorf("file size %d, reported %d", len(got), resp.Data.Size)
	}
}

func TestIntegration_Head_Remote(t *testing.T) {
	resp := client.Head(t.Context(), nil, "https://go.dev/")
	if !resp.IsOK() {
		t.Fatalf("expected OK, got %d: %v", resp.Code, resp.Err)
	}
	if resp.HasData {
		t.Error("HEAD must not carry data")
	}
}

func TestIntegration_Get_UnreachableHost(t *testing.T) {
	c, err := client.Build(client.WithConnectTimeout(2 * time.Second))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	resp := client.Get(t.Context(), c, "https://nonexistent.invalid/", client.Bytes())
	if resp.Code != client.NoStatus || resp.Err == nil {
		t.Fatalf("expected transport fault, got %d: %v", resp.Code, resp.Err)
	}
}

func TestIntegration_Get_CancelMidSpool(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	dir := t.TempDir()
	c, err := client.Build(client.WithTempDir(dir))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	resp := client.Get(ctx, c, "https://go.dev/dl/go1.24.0.src.tar.gz", client.TempFile())
	if resp.Err == nil {
		t.Fatal("expected the call to be cut short")
	}
	if errors.Is(resp.Err, client.ErrDecode) && !errors.Is(resp.Err, client.ErrDownloadCancelled) {
		t.Errorf("expected a cancelled spool, got: %v", resp.Err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected partial file removed, found %d entries", len(entries))
	}
}
