package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/husain-clintel/Pharmascribe-sub000/model"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

type questionArgs struct {
	Question    string                  `json:"question"`
	Options     []report.QuestionOption `json:"options"`
	AllowCustom bool                    `json:"allow_custom"`
	Category    string                  `json:"category"`
}

// ParseQuestion turns an ask_user_question invocation into a PendingQuestion
// whose id is the invocation id. Options without an id are numbered.
func ParseQuestion(call model.ToolCall) (*report.PendingQuestion, error) {
	var args questionArgs
	if err := decodeArgs(AskUserQuestion, call.Arguments, &args); err != nil {
		return nil, err
	}
	if strings.TrimSpace(args.Question) == "" {
		return nil, invalidArgs(AskUserQuestion, "question is required")
	}

	q := &report.PendingQuestion{
		ID:          call.ID,
		Question:    strings.TrimSpace(args.Question),
		Options:     make([]report.QuestionOption, 0, len(args.Options)),
		AllowCustom: args.AllowCustom,
		Category:    args.Category,
	}
	for i, opt := range args.Options {
		if strings.TrimSpace(opt.Label) == "" {
			continue
		}
		if opt.ID == "" {
			opt.ID = fmt.Sprintf("option_%d", i+1)
		}
		q.Options = append(q.Options, opt)
	}
	// a question without choices must accept a typed answer
	if len(q.Options) == 0 {
		q.AllowCustom = true
	}
	return q, nil
}

func askUserQuestionHandler() Handler {
	return func(ctx context.Context, ec ExecutionContext, raw map[string]any) (Output, error) {
		return Output{}, fmt.Errorf("%s pauses the request and cannot be executed as a tool", AskUserQuestion)
	}
}
