// Package ai wraps the external generative-AI API behind a tiny HTTP
// client. The reasoning is entirely the remote model's; this service
// only builds prompts from patient records and relays the answer.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/medoraai/clinic-backend/internal/model"
)

// ErrNotConfigured is returned when no API key is set. The AI endpoints
// surface it as 503 so the rest of the service keeps working.
var ErrNotConfigured = errors.New("ai service not configured")

type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether the client can make calls at all.
func (c *Client) Configured() bool { return c.APIKey != "" && c.BaseURL != "" }

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Generate posts a prompt to the remote model and returns its text
// answer verbatim. Low temperature keeps clinical suggestions stable.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(generateRequest{Model: c.Model, Prompt: prompt, Temperature: 0.1})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.BaseURL, "/")+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("ai api: %s", out.Error)
		}
		return "", fmt.Errorf("ai api: status %d", resp.StatusCode)
	}
	if out.Text == "" {
		return "", errors.New("ai api: empty answer")
	}
	return strings.TrimSpace(out.Text), nil
}

// PatientPrompt renders a patient record into the plain-text summary
// the diagnosis-suggestion prompt is built from. Empty fields are
// omitted to keep the prompt short.
func PatientPrompt(p model.Patient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s %s, age %s, %s.\n", p.FirstName, p.LastName, p.Age, p.Gender)
	fmt.Fprintf(&b, "Complaints: %s\n", p.Complaints)
	appendIf(&b, "History", p.History)
	appendIf(&b, "Objective findings", p.ObjectiveData)
	appendIf(&b, "Lab results", p.LabResults)
	appendIf(&b, "Allergies", p.Allergies)
	appendIf(&b, "Current medications", p.Medications)
	appendIf(&b, "Family history", p.FamilyHistory)
	appendIf(&b, "Additional", p.AdditionalInfo)
	b.WriteString("\nSuggest the most likely diagnoses with short reasoning and recommended next steps.")
	return b.String()
}

func appendIf(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
