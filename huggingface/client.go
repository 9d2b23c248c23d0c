// Package huggingface provides clients for the Hugging Face Dataset Viewer API,
// which supplies dataset rows as analysis documents, and the Inference API,
// which embeds their text.
package huggingface

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alDuncanson/latentscope/vectorset"
)

const datasetsBaseURL = "https://datasets-server.huggingface.co"

// rowsPageSize is the Dataset Viewer's maximum page length.
const rowsPageSize = 100

// Client interacts with the Hugging Face Dataset Viewer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new Dataset Viewer client. An empty baseURL uses the public API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = datasetsBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: &http.Client{}}
}

// SplitsResponse represents the response from the /splits endpoint.
type SplitsResponse struct {
	Splits []Split `json:"splits"`
}

// Split represents a dataset split.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// RowsResponse represents the response from the /rows endpoint.
type RowsResponse struct {
	Rows []RowWrapper `json:"rows"`
}

// RowWrapper wraps an individual row from the dataset.
type RowWrapper struct {
	RowIdx int            `json:"row_idx"`
	Row    map[string]any `json:"row"`
}

// DatasetRef names one dataset split and the column holding the text.
type DatasetRef struct {
	Dataset string
	Config  string
	Split   string
	Column  string
}

// GetSplits fetches available splits for a dataset.
func (c *Client) GetSplits(ctx context.Context, dataset string) (*SplitsResponse, error) {
	reqURL := fmt.Sprintf("%s/splits?dataset=%s", c.baseURL, url.QueryEscape(dataset))

	var result SplitsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRows fetches rows from a dataset split.
func (c *Client) GetRows(ctx context.Context, ref DatasetRef, offset, length int) (*RowsResponse, error) {
	reqURL := fmt.Sprintf("%s/rows?dataset=%s&config=%s&split=%s&offset=%s&length=%s",
		c.baseURL,
		url.QueryEscape(ref.Dataset),
		url.QueryEscape(ref.Config),
		url.QueryEscape(ref.Split),
		strconv.Itoa(offset),
		strconv.Itoa(length),
	)

	var result RowsResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchDocuments pages through a split and returns one document per row with
// non-empty text in ref.Column. The remaining row fields become metadata.
// maxRows <= 0 reads the whole split.
func (c *Client) FetchDocuments(ctx context.Context, ref DatasetRef, maxRows int) ([]vectorset.Document, error) {
	var documents []vectorset.Document
	offset := 0

	for {
		if maxRows > 0 && offset >= maxRows {
			break
		}

		remaining := rowsPageSize
		if maxRows > 0 && offset+rowsPageSize > maxRows {
			remaining = maxRows - offset
		}

		rows, err := c.GetRows(ctx, ref, offset, remaining)
		if err != nil {
			return nil, err
		}
		if len(rows.Rows) == 0 {
			break
		}

		documents = append(documents, documentsFromRows(ref, rows.Rows)...)
		offset += len(rows.Rows)

		if len(rows.Rows) < remaining {
			break
		}
	}

	return documents, nil
}

func documentsFromRows(ref DatasetRef, rows []RowWrapper) []vectorset.Document {
	documents := make([]vectorset.Document, 0, len(rows))
	for _, wrapper := range rows {
		text, ok := wrapper.Row[ref.Column].(string)
		if !ok || text == "" {
			continue
		}
		metadata := make(map[string]any, len(wrapper.Row))
		for key, value := range wrapper.Row {
			if key != ref.Column {
				metadata[key] = value
			}
		}
		documents = append(documents, vectorset.Document{
			ID:       fmt.Sprintf("%s/%s/%d", ref.Dataset, ref.Split, wrapper.RowIdx),
			Text:     text,
			Metadata: metadata,
		})
	}
	return documents
}

func (c *Client) getJSON(ctx context.Context, reqURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
