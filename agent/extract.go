package agent

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// BlockExtractor finds the structured payload in the model's final text.
type BlockExtractor interface {
	// TryExtract returns the first candidate that decodes as an envelope.
	TryExtract(text string) (json.RawMessage, bool)
}

// Extraction is the structured part of a final answer. Both fields are
// optional and independent.
type Extraction struct {
	Changes     *report.ChangeSet
	StepSummary *modelStepSummary
}

type modelStepSummary struct {
	StepsCompleted []string `json:"stepsCompleted"`
	IssuesFound    *int     `json:"issuesFound"`
	IssuesResolved *int     `json:"issuesResolved"`
}

type envelope struct {
	Changes     *report.ChangeSet `json:"changes"`
	StepSummary *modelStepSummary `json:"stepSummary"`
}

const fence = "```"

var (
	fenceOpen = regexp.MustCompile("```(json)?[ \\t]*\\r?\\n")
	bareStart = regexp.MustCompile(`\{\s*"(?:changes|stepSummary)"\s*:`)
	blankRuns = regexp.MustCompile(`\n[ \t]*(?:\n[ \t]*){2,}`)
)

// fencedBlock is a fenced code block holding JSON. start and end cover both
// fences.
type fencedBlock struct {
	start, end int
	isJSON     bool
	raw        []byte
}

// fencedBlocks finds the json fences and brace-bodied generic fences of
// text in order. A body is decoded as JSON before the closing fence is
// looked for, so fences inside string values do not end a block. A json
// fence whose body does not decode ends at the next fence.
func fencedBlocks(text string) []fencedBlock {
	var blocks []fencedBlock
	pos := 0
	for {
		loc := fenceOpen.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			return blocks
		}
		start, bodyStart := pos+loc[0], pos+loc[1]
		isJSON := loc[2] >= 0
		body := text[bodyStart:]

		if raw, n, ok := decodeFenced(body, isJSON); ok {
			blocks = append(blocks, fencedBlock{start: start, end: bodyStart + n, isJSON: isJSON, raw: raw})
			pos = bodyStart + n
			continue
		}
		if i := strings.Index(body, fence); isJSON && i >= 0 {
			end := bodyStart + i + len(fence)
			blocks = append(blocks, fencedBlock{start: start, end: end, isJSON: true, raw: bytes.TrimSpace([]byte(body[:i]))})
			pos = end
			continue
		}
		pos = bodyStart
	}
}

// decodeFenced reads one JSON value from the start of body and requires the
// closing fence right after it. n is the offset just past that fence.
func decodeFenced(body string, isJSON bool) ([]byte, int, bool) {
	lead := len(body) - len(strings.TrimLeft(body, " \t\r\n"))
	if !isJSON && !strings.HasPrefix(body[lead:], "{") {
		return nil, 0, false
	}
	dec := json.NewDecoder(strings.NewReader(body[lead:]))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, false
	}
	end := lead + int(dec.InputOffset())
	rest := body[end:]
	trail := len(rest) - len(strings.TrimLeft(rest, " \t\r\n"))
	if !strings.HasPrefix(rest[trail:], fence) {
		return nil, 0, false
	}
	return raw, end + trail + len(fence), true
}

// decodeEnvelope accepts raw only when it is an object carrying changes or
// stepSummary and both decode.
func decodeEnvelope(raw []byte) (*envelope, bool) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, false
	}
	_, hasChanges := keys["changes"]
	_, hasSummary := keys["stepSummary"]
	if !hasChanges && !hasSummary {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false
	}
	return &env, true
}

// FenceExtractor tries json fences, then brace-bodied generic fences, then
// bare envelope objects.
type FenceExtractor struct{}

func (FenceExtractor) TryExtract(text string) (json.RawMessage, bool) {
	blocks := fencedBlocks(text)
	for _, wantJSON := range []bool{true, false} {
		for _, b := range blocks {
			if b.isJSON == wantJSON && validEnvelope(b.raw) {
				return b.raw, true
			}
		}
	}
	for _, loc := range bareStart.FindAllStringIndex(text, -1) {
		if raw, _, ok := decodeBare(text[loc[0]:]); ok {
			return raw, true
		}
	}
	return nil, false
}

func validEnvelope(raw []byte) bool {
	_, ok := decodeEnvelope(raw)
	return ok
}

// decodeBare reads one JSON value from the start of s and ignores whatever
// follows it. It returns the value and its length in bytes.
func decodeBare(s string) (json.RawMessage, int, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, 0, false
	}
	if !validEnvelope(raw) {
		return nil, 0, false
	}
	return raw, int(dec.InputOffset()), true
}

// Extract runs x over text. It never fails; text without a usable block
// yields an empty Extraction.
func Extract(x BlockExtractor, text string) Extraction {
	raw, ok := x.TryExtract(text)
	if !ok {
		return Extraction{}
	}
	env, ok := decodeEnvelope(raw)
	if !ok {
		return Extraction{}
	}
	out := Extraction{Changes: env.Changes, StepSummary: env.StepSummary}
	if out.Changes.IsEmpty() {
		out.Changes = nil
	}
	return out
}

// StripStructuredBlocks removes structured payloads from text so only the
// narrative is shown to the user.
func StripStructuredBlocks(text string) string {
	var unfenced strings.Builder
	last := 0
	for _, blk := range fencedBlocks(text) {
		unfenced.WriteString(text[last:blk.start])
		last = blk.end
	}
	unfenced.WriteString(text[last:])
	text = unfenced.String()

	var b strings.Builder
	for {
		loc := bareStart.FindStringIndex(text)
		if loc == nil {
			b.WriteString(text)
			break
		}
		_, n, ok := decodeBare(text[loc[0]:])
		if !ok {
			b.WriteString(text[:loc[1]])
			text = text[loc[1]:]
			continue
		}
		b.WriteString(text[:loc[0]])
		text = text[loc[0]+n:]
	}

	return strings.TrimSpace(blankRuns.ReplaceAllString(b.String(), "\n\n"))
}
