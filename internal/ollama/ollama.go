package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookswap/internal/providers"
)

const defaultURL = "http://localhost:11434"

// Ollama is a provider for Ollama
type Ollama struct {
	url        string
	httpClient *http.Client
}

// New returns a new Ollama provider talking to the given host
func New(url string) *Ollama {
	if url == "" {
		url = defaultURL
	}
	return &Ollama{
		url: strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

// ExtractText runs a non-streaming generate call with the photos attached
func (o *Ollama) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	prompt := config.Prompt
	images := make([]string, 0, len(config.Images))
	labels := make([]string, 0, len(config.Images))
	for _, img := range config.Images {
		images = append(images, base64.StdEncoding.EncodeToString(img.Data))
		labels = append(labels, img.Label)
	}
	// Ollama takes a flat image list, so name the photos in prompt order.
	if len(labels) > 0 {
		prompt += "\n\nPhotos attached in order: " + strings.Join(labels, ", ")
	}

	body := map[string]interface{}{
		"model":  config.Model,
		"prompt": prompt,
		"images": images,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": config.Temperature,
		},
	}
	if config.JSON {
		body["format"] = "json"
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
		if providers.IsTransientStatus(resp.StatusCode) {
			return "", fmt.Errorf("%w: %w", providers.ErrTransient, err)
		}
		return "", err
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Response, nil
}
