package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSetEmployeeHasAccount_OK(t *testing.T) {
	t.Parallel()

	var got struct {
		method, path, ct, auth string
		body                   map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.ct = r.Header.Get("Content-Type")
		got.auth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got.body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	err := c.SetEmployeeHasAccount(context.Background(), "org-1", "emp-1", true, "tok-abc")
	if err != nil {
		t.Fatalf("err = %v", err)
	}

	if got.method != http.MethodPatch {
		t.Fatalf("method = %s", got.method)
	}
	if got.path != "/organizations/org-1/employees/emp-1" {
		t.Fatalf("path = %s", got.path)
	}
	if got.ct != "application/merge-patch+json" {
		t.Fatalf("content-type = %s", got.ct)
	}
	if got.auth != "Bearer tok-abc" {
		t.Fatalf("authorization = %s", got.auth)
	}
	if v, ok := got.body["hasAccount"].(bool); !ok || !v {
		t.Fatalf("body = %v", got.body)
	}
}

func TestSetEmployeeHasAccount_RemoteRejects(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":"error"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	err := c.SetEmployeeHasAccount(context.Background(), "org-1", "emp-1", false, "tok")
	var herr *HTTPError
	if !errors.As(err, &herr) {
		t.Fatalf("tipo inesperado: %T (%v)", err, err)
	}
	if herr.Status != http.StatusConflict {
		t.Fatalf("status = %d", herr.Status)
	}
	if herr.Body == "" {
		t.Fatal("body vacío en HTTPError")
	}
}

func TestSetEmployeeHasAccount_TransportError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // apagado: conexión rechazada

	c := New(srv.URL, time.Second)
	err := c.SetEmployeeHasAccount(context.Background(), "o", "e", true, "t")
	if err == nil {
		t.Fatal("esperaba error de transporte")
	}
	// fallo de transporte NO es HTTPError
	var herr *HTTPError
	if errors.As(err, &herr) {
		t.Fatalf("transporte mapeado a HTTPError: %v", err)
	}
}

func TestSetEmployeeHasAccount_ContextTimeout(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() { close(block); srv.Close() }()

	c := New(srv.URL, 10*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.SetEmployeeHasAccount(ctx, "o", "e", true, "t")
	if err == nil {
		t.Fatal("esperaba timeout")
	}
}
