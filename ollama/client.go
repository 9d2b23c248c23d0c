// Package ollama provides an HTTP client for interacting with the Ollama API.
// It handles text embedding requests, converting text strings into
// high-dimensional vector representations using Ollama's embedding models.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/alDuncanson/latentscope/embedding"
)

// DefaultURL is where a local Ollama server listens.
const DefaultURL = "http://localhost:11434"

// Client handles HTTP communication with the Ollama embedding API.
// It maintains the connection configuration and reuses an HTTP client
// for efficient request handling.
type Client struct {
	baseURL    string       // The base URL of the Ollama server (e.g., "http://localhost:11434")
	modelName  string       // The name of the embedding model to use (e.g., "nomic-embed-text")
	httpClient *http.Client // Reusable HTTP client for making requests
}

var _ embedding.Embedder = (*Client)(nil)

// embeddingRequest represents the JSON payload sent to the Ollama /api/embed endpoint.
// Input is either a single string or a list of strings.
type embeddingRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

// embeddingResponse represents the JSON response from the Ollama /api/embed endpoint.
// Embeddings holds one vector per input, in request order.
type embeddingResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient creates a new Ollama client configured to connect to the specified
// server and use the given embedding model. An empty baseURL uses DefaultURL.
func NewClient(baseURL, modelName string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		modelName:  modelName,
		httpClient: &http.Client{},
	}
}

// Model returns the configured embedding model name.
func (ollamaClient *Client) Model() string {
	return ollamaClient.modelName
}

// Embed converts the provided text into a vector embedding using the Ollama API.
// If the input text is empty, Embed returns nil without making an API request.
func (ollamaClient *Client) Embed(ctx context.Context, inputText string) ([]float32, error) {
	// Skip API call for empty input text
	if inputText == "" {
		return nil, nil
	}

	embeddingVectors, requestError := ollamaClient.requestEmbeddings(ctx, inputText, 1)
	if requestError != nil {
		return nil, requestError
	}
	return embeddingVectors[0], nil
}

// EmbedBatch embeds several texts in one request. The returned vectors are in
// the same order as inputTexts.
func (ollamaClient *Client) EmbedBatch(ctx context.Context, inputTexts []string) ([][]float32, error) {
	if len(inputTexts) == 0 {
		return nil, nil
	}
	return ollamaClient.requestEmbeddings(ctx, inputTexts, len(inputTexts))
}

// requestEmbeddings posts to /api/embed and checks that expectedCount vectors came back.
func (ollamaClient *Client) requestEmbeddings(ctx context.Context, input any, expectedCount int) ([][]float32, error) {
	// Serialize the request payload to JSON
	jsonRequestBody, marshalError := json.Marshal(embeddingRequest{
		Model: ollamaClient.modelName,
		Input: input,
	})
	if marshalError != nil {
		return nil, fmt.Errorf("marshal request: %w", marshalError)
	}

	embeddingEndpointURL := ollamaClient.baseURL + "/api/embed"
	httpRequest, requestError := http.NewRequestWithContext(ctx, http.MethodPost, embeddingEndpointURL, bytes.NewReader(jsonRequestBody))
	if requestError != nil {
		return nil, fmt.Errorf("create request: %w", requestError)
	}
	httpRequest.Header.Set("Content-Type", "application/json")

	// Send the embedding request to the Ollama API
	httpResponse, postError := ollamaClient.httpClient.Do(httpRequest)
	if postError != nil {
		return nil, fmt.Errorf("post request: %w", postError)
	}
	defer httpResponse.Body.Close()

	// Verify the API returned a successful status code
	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", httpResponse.StatusCode)
	}

	// Deserialize the JSON response into the embedding response structure
	var parsedResponse embeddingResponse
	if decodeError := json.NewDecoder(httpResponse.Body).Decode(&parsedResponse); decodeError != nil {
		return nil, fmt.Errorf("decode response: %w", decodeError)
	}

	// Validate that the response contains one embedding per input
	if len(parsedResponse.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	if len(parsedResponse.Embeddings) != expectedCount {
		return nil, fmt.Errorf("expected %d embeddings, got %d", expectedCount, len(parsedResponse.Embeddings))
	}

	return parsedResponse.Embeddings, nil
}
