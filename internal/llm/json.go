package llm

import "strings"

// CleanJSONResponse strips the wrappers models commonly add around JSON
// output: markdown code fences, a leading <think> block, and surrounding
// prose before the first brace.
func CleanJSONResponse(raw string) string {
	s := strings.TrimSpace(raw)

	// Drop a reasoning block if the model emitted one.
	if idx := strings.Index(s, "</think>"); idx != -1 {
		s = s[idx+len("</think>"):]
		s = strings.TrimSpace(s)
	}

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	// Trim any prose around the outermost JSON object.
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start != -1 && end > start {
		s = s[start : end+1]
	}

	return s
}
