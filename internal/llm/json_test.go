package llm

import "testing"

func TestCleanJSONResponse(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain object untouched",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "think block stripped",
			input: "<think>let me reason about this</think>\n{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		{
			name:  "surrounding prose trimmed",
			input: "Here is the extracted data:\n{\"a\": 1}\nLet me know if you need anything else.",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose and fence combined",
			input: "Sure! ```json\n{\"a\": 1}\n``` hope that helps",
			want:  `{"a": 1}`,
		},
		{
			name:  "nested braces preserved",
			input: "result: {\"a\": {\"b\": 2}} done",
			want:  `{"a": {"b": 2}}`,
		},
		{
			name:  "whitespace only",
			input: "   \n\t",
			want:  "",
		},
		{
			name:  "no json at all",
			input: "I could not process this document.",
			want:  "I could not process this document.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CleanJSONResponse(tc.input); got != tc.want {
				t.Errorf("CleanJSONResponse(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}
