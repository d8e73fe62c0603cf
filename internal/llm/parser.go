package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/mtr-normalizer/internal/common"
)

// cleanMarkdownWrapper strips a ```json ... ``` fence around a response.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```")
	if nl := strings.IndexByte(content, '\n'); nl >= 0 {
		content = content[nl+1:]
	}
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

// extractJSON returns the outermost object or array in content.
func extractJSON(content string, open, closing byte) (string, error) {
	content = cleanMarkdownWrapper(content)
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, closing)
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON found in response", common.ErrInvalidResponse)
	}
	return content[start : end+1], nil
}

// researchResponse is the JSON shape requested from the research prompt.
type researchResponse struct {
	Specifications map[string]any `json:"specifications"`
	Manufacturer   string         `json:"manufacturer"`
	Model          string         `json:"model"`
	ProductType    string         `json:"product_type"`
	Confidence     float64        `json:"confidence"`
}

func parseResearch(content string) (researchResponse, error) {
	raw, err := extractJSON(content, '{', '}')
	if err != nil {
		return researchResponse{}, err
	}
	var resp researchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return researchResponse{}, fmt.Errorf("%w: %w", common.ErrInvalidResponse, err)
	}
	return resp, nil
}

// stringifySpecs flattens JSON spec values to strings, dropping nulls.
func stringifySpecs(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if s := strings.TrimSpace(val); s != "" {
				out[k] = s
			}
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}

type codeResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func parseCodes(content string) ([]codeResponse, error) {
	raw, err := extractJSON(content, '[', ']')
	if err != nil {
		return nil, err
	}
	var codes []codeResponse
	if err := json.Unmarshal([]byte(raw), &codes); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidResponse, err)
	}
	return codes, nil
}

// parseSuggestions accepts a JSON array of strings or, failing that, one
// suggestion per non-empty line with list markers removed.
func parseSuggestions(content string) []string {
	if raw, err := extractJSON(content, '[', ']'); err == nil {
		var list []string
		if json.Unmarshal([]byte(raw), &list) == nil {
			return nonEmpty(list)
		}
	}

	var lines []string
	for _, line := range strings.Split(cleanMarkdownWrapper(content), "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789.) ")
		lines = append(lines, line)
	}
	return nonEmpty(lines)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
