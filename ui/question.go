package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/husain-clintel/Pharmascribe-sub000/agent"
	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// ErrNoAnswer is returned when the user leaves a question unanswered.
var ErrNoAnswer = errors.New("question left unanswered")

const customChoice = "\x00custom"

// AskQuestion prompts for an answer to q in the terminal. The selected
// option's label is returned, or the user's own words when custom answers
// are allowed.
func AskQuestion(q *report.PendingQuestion) (agent.Answer, error) {
	var choice, custom string

	if len(q.Options) > 0 {
		opts := make([]huh.Option[string], 0, len(q.Options)+1)
		for _, o := range q.Options {
			key := o.Label
			if o.Description != "" {
				key += " - " + o.Description
			}
			opts = append(opts, huh.NewOption(key, o.Label))
		}
		if q.AllowCustom {
			opts = append(opts, huh.NewOption("Something else…", customChoice))
		}

		sel := huh.NewSelect[string]().
			Title(q.Question).
			Options(opts...).
			Value(&choice)
		if err := huh.NewForm(huh.NewGroup(sel)).Run(); err != nil {
			return nil, err
		}
		if choice != customChoice {
			return agent.Answer{choice}, nil
		}
	}

	input := huh.NewInput().
		Title(q.Question).
		Value(&custom)
	if err := huh.NewForm(huh.NewGroup(input)).Run(); err != nil {
		return nil, err
	}
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return nil, ErrNoAnswer
	}
	return agent.Answer{custom}, nil
}

// ResolveAnswer maps answers given as option ids or 1-based option numbers
// to option labels. Anything else is kept as typed.
func ResolveAnswer(q *report.PendingQuestion, values []string) agent.Answer {
	out := make(agent.Answer, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, resolveOne(q, v))
	}
	return out
}

func resolveOne(q *report.PendingQuestion, v string) string {
	if q == nil {
		return v
	}
	for i, o := range q.Options {
		if o.ID == v || strconv.Itoa(i+1) == v {
			return o.Label
		}
	}
	return v
}
