package rp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New("", "tok"); err == nil {
		t.Fatal("expected error for empty baseURL")
	}
	if _, err := New("https://rp.test", "tok", WithTimeout(-time.Second)); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestLaunchScope_Start(t *testing.T) {
	var got StartLaunchRQ
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/crm-qe/launch" || r.Method != "POST" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(EntryCreatedRS{ID: "launch-uuid"})
	}))
	defer server.Close()

	client, err := New(server.URL+"/", "test-token", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatal(err)
	}
	at := time.UnixMilli(1767225600000)
	uuid, err := client.Project("crm-qe").Launches().Start(context.Background(), StartLaunchRQ{Name: "nightly", StartTime: EpochMillis(at)})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if uuid != "launch-uuid" {
		t.Errorf("uuid = %q", uuid)
	}
	if auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Mode != "DEFAULT" || got.Name != "nightly" || !got.StartTime.Time().Equal(at) {
		t.Errorf("request = %+v", got)
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/crm-qe/launch/missing/finish":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(ErrorRS{ErrorCode: 40411, Message: "Launch 'missing' not found"})
		default:
			http.Error(w, "", http.StatusUnauthorized)
		}
	}))
	defer server.Close()

	client, _ := New(server.URL, "bad", WithHTTPClient(server.Client()))
	proj := client.Project("crm-qe")

	_, err := proj.Launches().Finish(context.Background(), "missing", FinishLaunchRQ{})
	if !IsNotFound(err) {
		t.Fatalf("expected IsNotFound, got: %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 40411 {
		t.Errorf("error code = %v", err)
	}

	_, err = proj.Items().Start(context.Background(), StartItemRQ{Name: "x"})
	if !IsUnauthorized(err) {
		t.Errorf("expected IsUnauthorized, got: %v", err)
	}
}

func TestEpochMillis_Micros(t *testing.T) {
	var e EpochMillis
	if err := json.Unmarshal([]byte("1767225600000123"), &e); err != nil {
		t.Fatal(err)
	}
	if want := time.UnixMicro(1767225600000123); !e.Time().Equal(want) {
		t.Errorf("time = %s, want %s", e.Time(), want)
	}
	data, _ := json.Marshal(EpochMillis(time.UnixMilli(1767225600000)))
	if string(data) != "1767225600000" {
		t.Errorf("marshal = %s", data)
	}
}

func TestReadAPIKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rp-token")
	os.WriteFile(path, []byte("  abc123  \nsecond line\n"), 0o600)
	key, err := ReadAPIKey(path)
	if err != nil || key != "abc123" {
		t.Errorf("ReadAPIKey = %q, %v", key, err)
	}

	empty := filepath.Join(dir, "empty")
	os.WriteFile(empty, []byte("\n"), 0o600)
	if _, err := ReadAPIKey(empty); err == nil {
		t.Error("expected error for empty token file")
	}
}
