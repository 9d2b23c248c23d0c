package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/alDuncanson/latentscope/embedding"
)

const inferenceAPIBaseURL = "https://api-inference.huggingface.co"

// EmbeddingsClient handles HTTP communication with the Hugging Face Inference API
// for generating text embeddings.
type EmbeddingsClient struct {
	baseURL    string
	modelID    string
	token      string
	httpClient *http.Client
}

var _ embedding.Embedder = (*EmbeddingsClient)(nil)

// embeddingsRequest represents the JSON payload sent to the HF Inference API.
type embeddingsRequest struct {
	Inputs  string          `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewEmbeddingsClient creates a new Hugging Face embeddings client.
// If token is empty, it will attempt to read from HF_TOKEN environment variable.
// An empty baseURL uses the public Inference API.
func NewEmbeddingsClient(baseURL, modelID, token string) *EmbeddingsClient {
	if baseURL == "" {
		baseURL = inferenceAPIBaseURL
	}
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	return &EmbeddingsClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelID:    modelID,
		token:      token,
		httpClient: &http.Client{},
	}
}

// Model returns the model id used for feature extraction.
func (c *EmbeddingsClient) Model() string {
	return c.modelID
}

// Embed converts the provided text into a vector embedding using the Hugging Face Inference API.
// It returns a slice of float32 values representing the text in embedding space,
// or an error if the embedding request fails.
func (c *EmbeddingsClient) Embed(ctx context.Context, inputText string) ([]float32, error) {
	if inputText == "" {
		return nil, nil
	}

	jsonBody, err := json.Marshal(embeddingsRequest{
		Inputs:  inputText,
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/pipeline/feature-extraction/%s", c.baseURL, c.modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return nil, fmt.Errorf("API error %d: %v", resp.StatusCode, errorBody)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return parseFeatureExtraction(raw)
}

// parseFeatureExtraction accepts the two shapes the pipeline returns for one
// input: a flat vector, or a nested [[...]] with the vector first.
func parseFeatureExtraction(raw json.RawMessage) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("no embeddings returned")
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return nested[0], nil
}
