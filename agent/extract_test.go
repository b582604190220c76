package agent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const payload = `{"changes":{"sections":[{"id":"s1","content":"Cmax was 12 ng/mL."}],"newTables":[{"id":"","title":"PK","headers":["Dose","AUC"],"rows":[["10",1520]],"order":3}]}}`

func TestExtractFenceStylesAgree(t *testing.T) {
	texts := map[string]string{
		"json fence":    "Done.\n\n```json\n" + payload + "\n```",
		"generic fence": "Done.\n\n```\n" + payload + "\n```",
		"bare trailing": "Done.\n\n" + payload,
		"bare + prose":  "Done. " + payload + " Let me know if you need more.",
	}

	var want *Extraction
	for name, text := range texts {
		got := Extract(FenceExtractor{}, text)
		require.NotNil(t, got.Changes, name)
		if want == nil {
			want = &got
			continue
		}
		if diff := cmp.Diff(want.Changes, got.Changes); diff != "" {
			t.Errorf("%s: changes differ (-want +got):\n%s", name, diff)
		}
	}
	assert.Equal(t, "1520", string(want.Changes.NewTables[0].Rows[0][1]))
}

func TestExtractPriority(t *testing.T) {
	text := "```\n{\"changes\":{\"sections\":[{\"id\":\"generic\"}]}}\n```\n" +
		"```json\n{\"changes\":{\"sections\":[{\"id\":\"json\"}]}}\n```"

	got := Extract(FenceExtractor{}, text)
	require.NotNil(t, got.Changes)
	assert.Equal(t, "json", got.Changes.Sections[0].ID)
}

func TestExtractFallsThroughBrokenCandidates(t *testing.T) {
	text := "```json\n{\"changes\": {\"sections\": [\n```\n" +
		"```json\n{\"unrelated\": true}\n```\n" +
		`{"stepSummary":{"stepsCompleted":["Checked units"],"issuesFound":1}}`

	got := Extract(FenceExtractor{}, text)
	assert.Nil(t, got.Changes)
	require.NotNil(t, got.StepSummary)
	assert.Equal(t, []string{"Checked units"}, got.StepSummary.StepsCompleted)
	assert.Equal(t, 1, *got.StepSummary.IssuesFound)
}

func TestExtractNothing(t *testing.T) {
	for _, text := range []string{
		"",
		"Plain narrative without any payload.",
		"```go\nfunc main() {}\n```",
		"```json\nnot json at all\n```",
		`{"changes": "should be an object"}`,
	} {
		got := Extract(FenceExtractor{}, text)
		assert.Nil(t, got.Changes, text)
		assert.Nil(t, got.StepSummary, text)
	}
}

func TestExtractEmptyChangesIsNil(t *testing.T) {
	got := Extract(FenceExtractor{}, "```json\n{\"changes\":{},\"stepSummary\":{\"stepsCompleted\":[]}}\n```")
	assert.Nil(t, got.Changes)
	assert.NotNil(t, got.StepSummary)
}

func TestStripStructuredBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "json fence",
			in:   "Updated the table.\n\n```json\n" + payload + "\n```\n\n\n\nAnything else?",
			want: "Updated the table.\n\nAnything else?",
		},
		{
			name: "generic brace fence",
			in:   "Intro\n```\n{\"a\": 1}\n```\nOutro",
			want: "Intro\n\nOutro",
		},
		{
			name: "bare object with prose after",
			in:   "Done. " + payload + " Thanks.",
			want: "Done.  Thanks.",
		},
		{
			name: "code fence kept",
			in:   "Example:\n```\nCmax = max(C)\n```",
			want: "Example:\n```\nCmax = max(C)\n```",
		},
		{
			name: "unparsable bare start kept",
			in:   `Note {"changes": oops}`,
			want: `Note {"changes": oops}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripStructuredBlocks(tt.in))
		})
	}
}

// content strings may carry markdown fences of their own
const fencedContent = "{\"changes\":{\"sections\":[{\"id\":\"s1\",\"content\":\"Dosing code:\\n```\\nx\\n```\\n\"}]}}"

func TestExtractFenceInsideContent(t *testing.T) {
	for name, text := range map[string]string{
		"json fence":    "Updated dosing.\n\n```json\n" + fencedContent + "\n```\n\nAnything else?",
		"generic fence": "Updated dosing.\n\n```\n" + fencedContent + "\n```\n\nAnything else?",
	} {
		t.Run(name, func(t *testing.T) {
			got := Extract(FenceExtractor{}, text)
			require.NotNil(t, got.Changes)
			require.Len(t, got.Changes.Sections, 1)
			assert.Equal(t, "Dosing code:\n```\nx\n```\n", *got.Changes.Sections[0].Content)

			assert.Equal(t, "Updated dosing.\n\nAnything else?", StripStructuredBlocks(text))
		})
	}
}

func TestStripKeepsNarrativeBetweenBlocks(t *testing.T) {
	text := "First.\n```json\n" + fencedContent + "\n```\nMiddle.\n```json\n{\"stepSummary\":{\"stepsCompleted\":[\"a\"]}}\n```\nLast."
	assert.Equal(t, "First.\n\nMiddle.\n\nLast.", StripStructuredBlocks(text))
}
