/*
Package ai generates optional Gemini commentary for a synced batch of
corporate actions, included in the digest email.
*/
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/sahamlab/idxca/internal/types"
)

type NotableAction struct {
	Symbol  string `json:"symbol"`
	Details string `json:"details"`
}

type Commentary struct {
	Summary []string        `json:"summary"`
	Notable []NotableAction `json:"notable_actions"`
}

const systemInstruction = `
You are a financial analyst covering the Indonesia Stock Exchange (IDX).

You will receive a JSON batch of freshly scraped corporate-action records of a
single category (shareholder meetings, bonus share issues, warrants or rights
issues). Summarize the batch for an investor digest.

Rules:
- Keep the summary to 2-4 concise bullet points describing the batch as a whole.
- List as notable only actions with unusual terms: deeply dilutive ratios,
  cancelled meetings, very near record or cum dates, or clustered actions on
  one issuer.
- Every claim must be tied to a symbol, date or ratio from the input. Do not
  speculate beyond the provided fields.
`

// GenerateCommentary asks Gemini for a structured summary of the batch.
// Callers treat any error as "no commentary"; it never fails a run.
func GenerateCommentary(ctx context.Context, category string, records []types.Record, apiKey, modelName string) (*Commentary, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal records for prompt: %w", err)
	}

	prompt := fmt.Sprintf("Category: %s\n\nRecords:\n%s", category, payload)

	contents := []*genai.Content{
		{Role: "system", Parts: []*genai.Part{{Text: systemInstruction}}},
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   commentarySchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	respText := resp.Text()

	var commentary Commentary
	if err := json.Unmarshal([]byte(respText), &commentary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, respText)
	}

	return &commentary, nil
}

func commentarySchema() *genai.Schema {
	notableSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"symbol":  {Type: genai.TypeString, Description: "Instrument identifier with market suffix."},
			"details": {Type: genai.TypeString, Description: "Specific dates, ratios or terms making this action notable."},
		},
		Required: []string{"symbol", "details"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "2-4 concise bullet points summarizing the batch.",
			},
			"notable_actions": {
				Type:        genai.TypeArray,
				Items:       notableSchema,
				Description: "Actions with unusual terms worth a closer look.",
			},
		},
		Required: []string{"summary", "notable_actions"},
	}
}
