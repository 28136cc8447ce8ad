package vision

import (
	"encoding/json"
	"strings"

	"github.com/gridsnap/gridsnap/internal/domain"
)

// tablePayload mirrors the JSON object the extraction prompt demands.
type tablePayload struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ParseTableContent turns the model's textual reply into a normalized table.
// Markdown code fences around the JSON are tolerated; anything without a
// parseable {headers, rows} object is an extraction failure, not a guess.
func ParseTableContent(content string) (*domain.Table, error) {
	jsonContent, ok := extractJSONObject(content)
	if !ok {
		return nil, domain.ExtractionError("no JSON object in model response", nil)
	}

	// Presence of both keys is required; an unrelated JSON object is as
	// unusable as prose.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonContent), &keys); err != nil {
		return nil, domain.ExtractionError("model response is not valid JSON", err)
	}
	if _, found := keys["headers"]; !found {
		return nil, domain.ExtractionError(`model response missing "headers"`, nil)
	}
	if _, found := keys["rows"]; !found {
		return nil, domain.ExtractionError(`model response missing "rows"`, nil)
	}

	var payload tablePayload
	if err := json.Unmarshal([]byte(jsonContent), &payload); err != nil {
		return nil, domain.ExtractionError("model response has wrong table shape", err)
	}

	table := &domain.Table{
		Headers: payload.Headers,
		Rows:    payload.Rows,
	}
	table.Normalize()

	return table, nil
}

// extractJSONObject strips markdown code fences and locates the outermost
// JSON object boundaries in the reply.
func extractJSONObject(content string) (string, bool) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}

	return content[start : end+1], true
}
