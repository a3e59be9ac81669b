package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/avast/retry-go/v4"

	"github.com/Lllllllleong/heatsheetflow/internal/models"
)

// --- Event Extractor Model Prompts ---
const ExtractorSystemPrompt = "You are a swim meet heat sheet parser. You read meet program PDFs and transcribe every event, heat and lane assignment exactly as printed. You must output your response as a single valid JSON object."
const ExtractorUserPrompt = `Extract every event from the attached meet program.

Follow these rules precisely:
1.  Return one JSON object with a single key "events" holding an array.
2.  Each event object has:
    - "eventNumber": the printed event number as an integer, or null if the event is unnumbered.
    - "eventName": the event title exactly as printed (e.g. "Girls 11-12 50 Yard Freestyle").
    - "athletes": an array of entrants, each with "name" (as printed, e.g. "Smith, Jane"), "team", "heat" (integer), "lane" (integer) and "seedTime" (string, e.g. "29.85" or "NT").
3.  Omit any athlete field that is not printed. Never invent values.
4.  Keep events in the order they appear in the document.
5.  Do not include any text before or after the JSON object.

Example output format:
{
  "events": [
    {"eventNumber": 1, "eventName": "Girls 8 & Under 25 Yard Freestyle", "athletes": [
      {"name": "Smith, Jane", "team": "Dolphins", "heat": 1, "lane": 4, "seedTime": "19.85"}
    ]}
  ]
}`

// ExtractorPageHintPrompt steers one chunk of a chunked extraction.
const ExtractorPageHintPrompt = "This request covers %s of the document. Only extract events that start on those pages."

// --- Highlight Locator Model Prompts ---
const LocatorSystemPrompt = "You are analyzing a swim meet heat sheet PDF. You report the exact positions of athlete rows so they can be highlighted. You must output your response as a single valid JSON object."
const LocatorUserPrompt = `Here are ALL the entries to find. Do NOT miss any:
%s

For EACH entry above, find the row in the PDF where that athlete appears and return:
- page: 1-indexed page number
- yPercent: vertical position of the CENTER of the text row as a percentage from the TOP of the page (0=top, 100=bottom)
- xStartPercent: horizontal start of the row content as a percentage from the LEFT (typically where the lane number starts)
- xEndPercent: horizontal end of the row content as a percentage from the LEFT (typically where the seed time ends)
- found: false if the row could not be located

There are %d entries in total and each must appear in your response. Heat sheets list athletes in rows like "Lane Name Team SeedTime".

Return ONLY valid JSON:
{
  "highlights": [
    {"name": "Athlete Name", "event": "Event Name", "page": 1, "yPercent": 45.5, "xStartPercent": 5, "xEndPercent": 95, "found": true}
  ]
}`

// VertexClient holds all pre-configured generative models for our app.
type VertexClient struct {
	ExtractorModel *genai.GenerativeModel
	LocatorModel   *genai.GenerativeModel
	baseClient     *genai.Client
	attempts       uint
}

// NewVertexClient creates a new client holding all necessary models. Each
// model call is tried up to attempts times.
func NewVertexClient(ctx context.Context, projectID, region, modelName string, attempts uint) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	return &VertexClient{
		ExtractorModel: jsonModel(baseClient, modelName, ExtractorSystemPrompt),
		LocatorModel:   jsonModel(baseClient, modelName, LocatorSystemPrompt),
		baseClient:     baseClient,
		attempts:       max(attempts, 1),
	}, nil
}

func jsonModel(client *genai.Client, modelName, systemPrompt string) *genai.GenerativeModel {
	m := client.GenerativeModel(modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
		MaxOutputTokens:  genai.Ptr[int32](65535),
	}
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}
	return m
}

// ExtractEvents sends the whole document, plus the page hint if any, and
// returns the model's raw text. The caller parses it.
func (c *VertexClient) ExtractEvents(ctx context.Context, req models.ExtractionRequest) (string, error) {
	parts := []genai.Part{
		genai.Blob{MIMEType: "application/pdf", Data: req.Document},
		genai.Text(ExtractorUserPrompt),
	}
	if req.PageHint != "" {
		parts = append(parts, genai.Text(fmt.Sprintf(ExtractorPageHintPrompt, req.PageHint)))
	}
	return c.generate(ctx, c.ExtractorModel, parts)
}

// LocateHighlights asks for the row positions of the listed entries, one per line.
func (c *VertexClient) LocateHighlights(ctx context.Context, pdf []byte, entryLines []string) (string, error) {
	parts := []genai.Part{
		genai.Blob{MIMEType: "application/pdf", Data: pdf},
		genai.Text(fmt.Sprintf(LocatorUserPrompt, strings.Join(entryLines, "\n"), len(entryLines))),
	}
	return c.generate(ctx, c.LocatorModel, parts)
}

func (c *VertexClient) generate(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part) (string, error) {
	return retry.DoWithData(
		func() (string, error) {
			resp, err := model.GenerateContent(ctx, parts...)
			if err != nil {
				var blocked *genai.BlockedError
				if errors.As(err, &blocked) {
					return "", retry.Unrecoverable(fmt.Errorf("gemini blocked the request: %w", err))
				}
				return "", fmt.Errorf("failed to generate content from gemini: %w", err)
			}
			text, n := ResponseText(resp)
			if n > 1 {
				slog.Warn("Gemini response contained multiple text parts; they have been concatenated.", "parts", n)
			}
			return text, nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(2*time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Gemini call failed, will retry.", "attempt", n+1, "error", err)
		}),
	)
}

// ResponseText concatenates the text parts of the first candidate and
// reports how many there were.
func ResponseText(resp *genai.GenerateContentResponse) (string, int) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", 0
	}
	var b strings.Builder
	n := 0
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
			n++
		}
	}
	return b.String(), n
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
