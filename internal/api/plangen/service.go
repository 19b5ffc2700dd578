package plangen

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.0-flash"

// draftInstruction pins the model to the Markdown shape the extraction
// pipeline understands: per-day headings, itinerary tables with a 序号
// and 名称 column, blockquote weather/cost metadata.
const draftInstruction = `你是一位旅行规划师。请用 Markdown 输出行程：
每天一个 "## 第N天" 标题，标题下用表格列出地点，
表头必须包含 序号、时间、类型、名称、地址 列，
可以在表格前用 "> **天气**:" 和 "> **今日预计花销**:" 标注当天信息，
跨城交通放在 "## 往返交通" 小节，住宿放在 "## 住宿推荐" 小节。`

// AIClient wraps the Gemini API for drafting itineraries in the layout
// the parser expects. A missing GOOGLE_GEMINI_API_KEY leaves the client
// disabled rather than failing startup.
type AIClient struct {
	client *genai.Client
	model  string
}

func NewAIClient(ctx context.Context) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return &AIClient{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &AIClient{
		client: client,
		model:  defaultModel,
	}, nil
}

// Enabled reports whether a key was configured.
func (ai *AIClient) Enabled() bool {
	return ai != nil && ai.client != nil
}

// GenerateItinerary asks the model for a draft plan in the extraction
// Markdown layout.
func (ai *AIClient) GenerateItinerary(ctx context.Context, prompt string) (string, error) {
	if !ai.Enabled() {
		return "", fmt.Errorf("itinerary generator is disabled: no API key configured")
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(draftInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.5),
	}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate itinerary draft: %w", err)
	}
	return result.Text(), nil
}
