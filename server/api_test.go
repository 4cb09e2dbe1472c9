// Copyright (c) 2025 BVK Chaitanya

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

type echoRequest struct {
	Value string
}

type echoResponse struct {
	Value string
}

func TestPostJSONHandler(t *testing.T) {
	echo := func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		switch req.Value {
		case "missing":
			return nil, os.ErrNotExist
		case "invalid":
			return nil, fmt.Errorf("bad value: %w", os.ErrInvalid)
		}
		return &echoResponse{Value: req.Value}, nil
	}
	h := httpPostJSONHandler(echo)

	post := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	if w := post(`{"Value":"hello"}`); w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	} else {
		resp := new(echoResponse)
		if err := json.Unmarshal(w.Body.Bytes(), resp); err != nil {
			t.Fatal(err)
		}
		if resp.Value != "hello" {
			t.Errorf("Value = %q, want %q", resp.Value, "hello")
		}
	}

	if w := post(`{"Value":"missing"}`); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := post(`{"Value":"invalid"}`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if w := post(`not-json`); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}
