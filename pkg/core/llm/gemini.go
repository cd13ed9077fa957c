package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	Model string // e.g. "gemini-2.0-flash"
	// Grounded enables Google Search retrieval; cited sources are appended
	// to the answer.
	Grounded bool
}

var _ Provider = (*GeminiProvider)(nil)

// GenerateResponse sends a generateContent request through the GenAI SDK.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, messages []Message, opts Options) (string, error) {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return "", serviceError("gemini", "API_KEY_MISSING", errMissingKey([]string{"GEMINI_API_KEY"}))
	}
	system, turns, err := splitSystem(messages)
	if err != nil {
		return "", serviceError("gemini", "BAD_REQUEST", err)
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	model = opts.model(model)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", serviceError("gemini", "CLIENT_ERROR", err)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		MaxOutputTokens: int32(opts.maxTokens()),
	}
	if opts.JSON {
		config.ResponseMIMEType = "application/json"
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if p.Grounded {
		config.Tools = []*genai.Tool{
			{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, geminiContents(turns), config)
	if err != nil {
		return "", serviceError("gemini", "API_ERROR", err)
	}

	text := result.Text()
	if len(result.Candidates) > 0 {
		cand := result.Candidates[0]
		if cand.GroundingMetadata != nil && len(cand.GroundingMetadata.GroundingChunks) > 0 {
			var citations []string
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				if chunk.Web != nil {
					citations = append(citations, fmt.Sprintf("[%s](%s)", chunk.Web.Title, chunk.Web.URI))
				}
			}
			if len(citations) > 0 {
				text = fmt.Sprintf("%s\n\n**Sources:**\n%s", text, strings.Join(citations, "\n"))
			}
		}
	}
	return text, nil
}

// geminiContents maps conversation turns onto Gemini roles, where the
// assistant is called "model".
func geminiContents(turns []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, m := range turns {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}
	return contents
}

func (p *GeminiProvider) AdaptInstructions(raw string) string {
	return raw
}
