package tools

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

type sectionTemplate struct {
	Title      string `yaml:"title"`
	Guidelines string `yaml:"guidelines"`
}

type templateTable struct {
	Sections   map[string]sectionTemplate `yaml:"sections"`
	StudyTypes map[string]string          `yaml:"study_types"`
	Species    map[string]string          `yaml:"species"`
}

var (
	templatesOnce sync.Once
	templates     *templateTable
	templatesErr  error
)

func loadTemplates() (*templateTable, error) {
	templatesOnce.Do(func() {
		var t templateTable
		if err := yaml.Unmarshal(templatesYAML, &t); err != nil {
			templatesErr = fmt.Errorf("parse section templates: %w", err)
			return
		}
		templates = &t
	})
	return templates, templatesErr
}

// TemplateResult is the guidance returned for one section type.
type TemplateResult struct {
	Found       bool     `json:"found"`
	SectionType string   `json:"sectionType"`
	Title       string   `json:"title,omitempty"`
	Guidelines  string   `json:"guidelines,omitempty"`
	Notes       []string `json:"notes,omitempty"`
	Message     string   `json:"message,omitempty"`
	DidYouMean  []string `json:"didYouMean,omitempty"`
}

func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// LookupTemplate returns the guidelines for sectionType. An unknown section
// type is not an error: the result says so and lists close matches.
func LookupTemplate(sectionType, studyType, species string) (*TemplateResult, error) {
	t, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	key := normalizeKey(sectionType)
	tmpl, ok := t.Sections[key]
	if !ok {
		return &TemplateResult{
			Found:       false,
			SectionType: sectionType,
			Message: fmt.Sprintf("No template found for section type %q. Proceed using standard regulatory "+
				"guidance for nonclinical PK/TK reports.", sectionType),
			DidYouMean: suggestSections(key),
		}, nil
	}

	res := &TemplateResult{
		Found:       true,
		SectionType: key,
		Title:       tmpl.Title,
		Guidelines:  strings.TrimSpace(tmpl.Guidelines),
	}
	if note, ok := t.StudyTypes[normalizeKey(studyType)]; ok {
		res.Notes = append(res.Notes, "Study type: "+note)
	} else if studyType != "" {
		res.Notes = append(res.Notes, fmt.Sprintf("Study type %q: apply the general guidance above.", studyType))
	}
	if note, ok := t.Species[normalizeSpecies(species)]; ok {
		res.Notes = append(res.Notes, "Species: "+note)
	} else if species != "" {
		res.Notes = append(res.Notes, fmt.Sprintf("Species %q: state the strain and sampling design.", species))
	}
	return res, nil
}

var speciesAliases = map[string]string{
	"rats":              "rat",
	"mice":              "mouse",
	"dogs":              "dog",
	"beagle":            "dog",
	"monkeys":           "monkey",
	"cynomolgus":        "monkey",
	"cynomolgus_monkey": "monkey",
	"nhp":               "monkey",
	"minipigs":          "minipig",
	"rabbits":           "rabbit",
}

func normalizeSpecies(s string) string {
	key := normalizeKey(s)
	if alias, ok := speciesAliases[key]; ok {
		return alias
	}
	return key
}

func suggestSections(key string) []string {
	if key == "" {
		return nil
	}
	var out []string
	for _, m := range fuzzy.Find(key, sectionTypes) {
		out = append(out, m.Str)
		if len(out) == 3 {
			break
		}
	}
	return out
}

type templateArgs struct {
	SectionType string `json:"section_type"`
	StudyType   string `json:"study_type"`
	Species     string `json:"species"`
}

func getTemplateHandler() Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		var args templateArgs
		if err := decodeArgs(GetTemplate, raw, &args); err != nil {
			return Output{}, err
		}
		res, err := LookupTemplate(args.SectionType, args.StudyType, args.Species)
		if err != nil {
			return Output{}, err
		}
		return Output{Content: res}, nil
	}
}
