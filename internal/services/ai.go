package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/docuquery/backend/internal/config"
)

// AIClient relays questions and document ingestion to the external AI
// microservice. Failures are surfaced as-is; nothing is retried here.
type AIClient struct {
	baseURL string
	http    *http.Client
}

func NewAIClient(cfg config.AIConfig) *AIClient {
	return &AIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	InputUser      string `json:"input_user"`
	CollectionName string `json:"collection_name"`
}

// CollectionID derives the AI-side collection identifier from a workspace
// share code and a workspace-scoped collection name. Spaces become
// underscores, matching the normalization the AI service applies itself.
func CollectionID(workspaceCode, collectionName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(collectionName), " ", "_")
	return workspaceCode + "_" + name
}

// Chat asks a question against the derived collection and returns the raw
// response body as the answer text.
func (a *AIClient) Chat(ctx context.Context, workspaceCode, collectionName, question string) (string, error) {
	payload := chatRequest{
		InputUser:      question,
		CollectionName: CollectionID(workspaceCode, collectionName),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai service unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai service response unreadable: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("ai service returned status %d: %s", resp.StatusCode, string(raw))
	}

	return string(raw), nil
}

// IngestDocument registers a PDF into the derived collection on the AI
// service so subsequent chat questions can retrieve from it.
func (a *AIClient) IngestDocument(ctx context.Context, workspaceCode, collectionName, filename string, file io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("collection_name", CollectionID(workspaceCode, collectionName)); err != nil {
		return err
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload/", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("ai service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ai service returned status %d: %s", resp.StatusCode, string(raw))
	}

	return nil
}
