package agent

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/prompt"
)

// Service validates invocations, assembles the prompt and runs the loop.
type Service struct {
	controller    *Controller
	historyWindow int
}

func NewService(controller *Controller, historyWindow int) *Service {
	return &Service{controller: controller, historyWindow: historyWindow}
}

// Handle runs one invocation. Every outcome, including failures, is
// reported through the Result.
func (s *Service) Handle(ctx context.Context, req Request) Result {
	requestID := uuid.NewString()
	log := config.DebugLog.With(zap.String("request_id", requestID), zap.String("report_id", req.ReportID))

	if strings.TrimSpace(req.ReportID) == "" {
		log.Info("[Agent] rejected request without report id")
		return Result{Success: false, Error: "Missing reportId"}
	}

	action := req.Action
	if action == "" {
		action = prompt.ActionChat
	}
	if !action.Valid() {
		log.Info("[Agent] rejected unsupported action", zap.String("action", string(action)))
		return Result{Success: false, Error: "Unsupported action: " + string(action)}
	}

	in := prompt.Input{
		Action:        action,
		ReportID:      req.ReportID,
		Message:       req.Message,
		Section:       req.Section,
		Context:       req.Context,
		QCFindings:    req.QCFindings,
		History:       req.ConversationHistory,
		HistoryWindow: s.historyWindow,
	}
	if qr := req.QuestionResponse; qr != nil {
		in.Answer = &prompt.Answer{QuestionID: qr.QuestionID, Values: qr.Answer}
	}

	log.Info("[Agent] handling request", zap.String("action", string(action)), zap.Bool("answer", in.Answer != nil))
	outcome := s.controller.Run(ctx, req.ReportID, prompt.Build(in))
	log.Info("[Agent] request finished",
		zap.String("state", string(outcome.State)),
		zap.Int("turns", outcome.Turns),
		zap.Strings("tools", outcome.ToolsUsed))

	return outcome.Result()
}
