package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestSplitsResponseParsing(t *testing.T) {
	jsonData := `{"splits":[{"dataset":"test/dataset","config":"default","split":"train"},{"dataset":"test/dataset","config":"default","split":"test"}]}`

	var resp SplitsResponse
	if err := json.Unmarshal([]byte(jsonData), &resp); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if len(resp.Splits) != 2 {
		t.Errorf("expected 2 splits, got %d", len(resp.Splits))
	}

	if resp.Splits[0].Config != "default" {
		t.Errorf("expected config 'default', got %s", resp.Splits[0].Config)
	}
}

func TestDocumentsFromRows(t *testing.T) {
	ref := DatasetRef{Dataset: "test/dataset", Split: "train", Column: "text"}
	rows := []RowWrapper{
		{RowIdx: 0, Row: map[string]any{"text": "first", "label": 1.0}},
		{RowIdx: 1, Row: map[string]any{"text": "second", "label": 0.0}},
		{RowIdx: 2, Row: map[string]any{"text": "", "label": 0.0}},
		{RowIdx: 3, Row: map[string]any{"other": "value"}},
	}

	documents := documentsFromRows(ref, rows)
	if len(documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(documents))
	}
	if documents[0].Text != "first" || documents[1].Text != "second" {
		t.Errorf("unexpected texts: %+v", documents)
	}
	if documents[1].ID != "test/dataset/train/1" {
		t.Errorf("unexpected id %s", documents[1].ID)
	}
	if documents[0].Metadata["label"] != 1.0 {
		t.Errorf("expected label carried as metadata, got %v", documents[0].Metadata)
	}
	if _, ok := documents[0].Metadata["text"]; ok {
		t.Error("text column should not be duplicated into metadata")
	}
}

func TestFetchDocuments_Paginates(t *testing.T) {
	const totalRows = 230
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/rows" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		length, _ := strconv.Atoi(r.URL.Query().Get("length"))

		var rows []RowWrapper
		for i := offset; i < offset+length && i < totalRows; i++ {
			rows = append(rows, RowWrapper{RowIdx: i, Row: map[string]any{"text": fmt.Sprintf("row %d", i)}})
		}
		_ = json.NewEncoder(w).Encode(RowsResponse{Rows: rows})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ref := DatasetRef{Dataset: "test/dataset", Config: "default", Split: "train", Column: "text"}

	documents, err := client.FetchDocuments(context.Background(), ref, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(documents) != totalRows {
		t.Errorf("expected %d documents, got %d", totalRows, len(documents))
	}
	if requests != 3 {
		t.Errorf("expected 3 page requests, got %d", requests)
	}

	limited, err := client.FetchDocuments(context.Background(), ref, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(limited) != 150 {
		t.Errorf("expected 150 documents, got %d", len(limited))
	}
}

func TestGetRows_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetRows(context.Background(), DatasetRef{Dataset: "missing"}, 0, 10)
	if err == nil {
		t.Error("expected error for 404")
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("")
	if client == nil {
		t.Fatal("expected non-nil client")
	}
	if client.baseURL != datasetsBaseURL {
		t.Errorf("expected public base URL, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("expected non-nil http client")
	}
}
