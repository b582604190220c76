package tools

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"github.com/husain-clintel/Pharmascribe-sub000/storage"
)

// Tool names are part of the wire contract with the model and must not
// change without updating the system prompt.
const (
	RecallMemory        = "recall_memory"
	StoreMemory         = "store_memory"
	CheckQC             = "check_qc"
	GetTemplate         = "get_template"
	CalculateStatistics = "calculate_statistics"
	AskUserQuestion     = "ask_user_question"
)

var (
	qcCategories = []string{"terminology", "formatting", "consistency", "regulatory"}

	sectionTypes = []string{
		"summary", "introduction", "methods", "bioanalytical", "pharmacokinetics",
		"toxicokinetics", "results", "discussion", "conclusions",
	}
)

func memoryKindNames() []string {
	names := make([]string, len(storage.MemoryKinds))
	for i, k := range storage.MemoryKinds {
		names[i] = string(k)
	}
	return names
}

func objectSchema(props map[string]any, required ...string) mcptypes.ToolInputSchema {
	return mcptypes.ToolInputSchema{Type: "object", Properties: props, Required: required}
}

func recallMemoryDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name: RecallMemory,
		Description: "Recall decisions, preferences, facts and summaries stored for this report in earlier sessions. " +
			"Call this before drafting so earlier user decisions are respected.",
		InputSchema: objectSchema(map[string]any{
			"kinds": map[string]any{
				"type":        "array",
				"description": "Only return memories of these kinds",
				"items":       map[string]any{"type": "string", "enum": memoryKindNames()},
			},
			"categories": map[string]any{
				"type":        "array",
				"description": "Only return memories with these category tags",
				"items":       map[string]any{"type": "string"},
			},
			"min_importance": map[string]any{
				"type":        "integer",
				"description": "Minimum importance from 1 to 10 (default 5)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum number of memories to return (default 20)",
			},
		}),
	}
}

func storeMemoryDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name: StoreMemory,
		Description: "Persist a decision, preference, fact or summary about this report so later sessions can recall it. " +
			"Store user decisions as soon as they are made.",
		InputSchema: objectSchema(map[string]any{
			"kind": map[string]any{
				"type":        "string",
				"enum":        memoryKindNames(),
				"description": "What kind of memory this is",
			},
			"content": map[string]any{
				"description": "The memory itself: a string or a structured object",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Short tag used for filtering, e.g. units, terminology, style",
			},
			"importance": map[string]any{
				"type":        "integer",
				"description": "Importance from 1 to 10 (default 7)",
			},
		}, "kind", "content", "category"),
	}
}

func checkQCDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name: CheckQC,
		Description: "Run rule-based quality checks on report text and return issues with a 0-100 score. " +
			"Use after drafting or revising a section.",
		InputSchema: objectSchema(map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The text to check",
			},
			"checks": map[string]any{
				"type":        "array",
				"description": "Check categories to run (default: all)",
				"items":       map[string]any{"type": "string", "enum": qcCategories},
			},
		}, "text"),
	}
}

func getTemplateDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name:        GetTemplate,
		Description: "Get regulatory writing guidelines for a report section type, with notes for the study type and species.",
		InputSchema: objectSchema(map[string]any{
			"section_type": map[string]any{
				"type":        "string",
				"enum":        sectionTypes,
				"description": "The section to get guidance for",
			},
			"study_type": map[string]any{
				"type":        "string",
				"description": "e.g. single_dose, repeat_dose, toxicokinetic",
			},
			"species": map[string]any{
				"type":        "string",
				"description": "e.g. rat, dog, monkey",
			},
		}, "section_type"),
	}
}

func calculateStatisticsDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name: CalculateStatistics,
		Description: "Compute mean, sample SD and CV% for a list of values, with formatted 'mean (CV%)' and 'mean ± SD' strings. " +
			"Never compute summary statistics by hand.",
		InputSchema: objectSchema(map[string]any{
			"values": map[string]any{
				"type":        "array",
				"description": "Numeric values; nulls and non-numeric entries are ignored",
				"items":       map[string]any{"type": []string{"number", "null"}},
			},
			"decimals": map[string]any{
				"type":        "integer",
				"description": "Decimal places for mean and SD (default 2). CV% always uses 1.",
			},
			"parameter": map[string]any{
				"type":        "string",
				"description": "Name of the parameter, e.g. Cmax (ng/mL)",
			},
		}, "values"),
	}
}

func askUserQuestionDecl() mcptypes.Tool {
	return mcptypes.Tool{
		Name: AskUserQuestion,
		Description: "Ask the user a clarifying question and stop working until they answer. " +
			"Use only when the request is ambiguous and guessing could produce wrong regulatory content.",
		InputSchema: objectSchema(map[string]any{
			"question": map[string]any{
				"type":        "string",
				"description": "The question to ask",
			},
			"options": map[string]any{
				"type":        "array",
				"description": "Suggested answers",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":          map[string]any{"type": "string"},
						"label":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
					"required": []string{"id", "label"},
				},
			},
			"allow_custom": map[string]any{
				"type":        "boolean",
				"description": "Whether the user may type their own answer",
			},
			"category": map[string]any{
				"type":        "string",
				"description": "Topic tag, e.g. units, scope, terminology",
			},
		}, "question", "options"),
	}
}
