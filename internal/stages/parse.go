package stages

import (
	"encoding/json"
	"fmt"
	"strings"
)

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag. Models frequently wrap JSON output in one.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// extractJSON finds the outermost JSON object in a free-form model response.
func extractJSON(response string) (string, error) {
	response = stripCodeFences(response)
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return response[start : end+1], nil
}

// parseQueryList parses a {"queries": [...]} response into a cleaned list of
// non-blank queries.
func parseQueryList(response string) ([]string, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse query list: %w", err)
	}

	queries := make([]string, 0, len(parsed.Queries))
	for _, q := range parsed.Queries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// parseEvaluation parses an {"is_complete": ..., "follow_up_queries": [...]}
// response.
func parseEvaluation(response string) (bool, []string, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return false, nil, err
	}

	var parsed struct {
		IsComplete      bool     `json:"is_complete"`
		FollowUpQueries []string `json:"follow_up_queries"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return false, nil, fmt.Errorf("failed to parse evaluation: %w", err)
	}

	queries := make([]string, 0, len(parsed.FollowUpQueries))
	for _, q := range parsed.FollowUpQueries {
		if q = strings.TrimSpace(q); q != "" {
			queries = append(queries, q)
		}
	}
	return parsed.IsComplete, queries, nil
}

// parsePositions parses a {"positions": [...]} ranking response. Positions
// are 1-based; validation against the result count happens at the call site.
func parsePositions(response string) ([]int, error) {
	jsonStr, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Positions []int `json:"positions"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse positions: %w", err)
	}
	return parsed.Positions, nil
}
