package statement

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for PDF text extraction.
const DefaultModelName = "gemini-2.5-flash"

// TextExtractor turns a binary document into plain text lines.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfBytes []byte) (string, error)
}

// GeminiExtractor sends the PDF inline to Gemini and asks for the statement's
// transaction lines verbatim.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates a Gemini-backed extractor. An empty model
// falls back to DefaultModelName. Credentials come from the environment
// (GOOGLE_API_KEY or Vertex AI settings).
func NewGeminiExtractor(ctx context.Context, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

const extractPrompt = "You are a bank statement text extractor.\n\n" +
	"Task:\n" +
	"- Read the attached PDF bank statement.\n" +
	"- Output one line per transaction, in the order they appear.\n" +
	"- Each line must contain the transaction date, the description and the amount exactly as printed.\n" +
	"- Keep debits negative if the statement shows them that way.\n" +
	"- Do not add headers, totals, balances, commentary or Markdown.\n" +
	"Return ONLY the plain text lines.\n"

// ExtractText implements TextExtractor.
func (g *GeminiExtractor) ExtractText(ctx context.Context, pdfBytes []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("ExtractText: generate content: %w", err)
	}

	text := cleanModelText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("ExtractText: empty response from model")
	}
	return text, nil
}

// cleanModelText strips Markdown fences the model sometimes adds anyway.
func cleanModelText(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the opening fence line (``` or ```text).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return ""
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}
