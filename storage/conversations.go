package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/husain-clintel/Pharmascribe-sub000/report"
)

// Conversation is the chat history of one report plus the clarification
// question the agent is waiting on, if any.
type Conversation struct {
	ReportID        string                       `json:"report_id"`
	Messages        []report.ConversationMessage `json:"messages"`
	PendingQuestion *report.PendingQuestion      `json:"pending_question,omitempty"`
	CreatedAt       time.Time                    `json:"created_at"`
	UpdatedAt       time.Time                    `json:"updated_at"`
}

// ConversationStorage keeps one JSON file per report.
type ConversationStorage struct {
	dir string
}

func NewConversationStorage(dataDir string) (*ConversationStorage, error) {
	dir := filepath.Join(dataDir, "conversations")

	// 0700 - conversation files quote confidential study data
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	return &ConversationStorage{dir: dir}, nil
}

func (s *ConversationStorage) path(reportID string) string {
	return filepath.Join(s.dir, SanitizeFilename(reportID)+".json")
}

// Load returns the conversation of a report, or an empty one if none was saved yet.
func (s *ConversationStorage) Load(reportID string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(reportID))
	if errors.Is(err, os.ErrNotExist) {
		return &Conversation{ReportID: reportID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStorage) Save(conv *Conversation) error {
	if conv.ReportID == "" {
		return fmt.Errorf("conversation has no report id")
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated history
	tmp := s.path(conv.ReportID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}
	if err := os.Rename(tmp, s.path(conv.ReportID)); err != nil {
		return fmt.Errorf("failed to replace conversation file: %w", err)
	}
	return nil
}

// Append adds messages to the history and replaces the pending question.
func (s *ConversationStorage) Append(reportID string, pending *report.PendingQuestion, msgs ...report.ConversationMessage) (*Conversation, error) {
	conv, err := s.Load(reportID)
	if err != nil {
		return nil, err
	}
	conv.ReportID = reportID
	conv.Messages = append(conv.Messages, msgs...)
	conv.PendingQuestion = pending
	if err := s.Save(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ConversationStorage) Delete(reportID string) error {
	if err := os.Remove(s.path(reportID)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("conversation %s: %w", reportID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete conversation file: %w", err)
	}
	return nil
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-", "\"", "-",
		"<", "-", ">", "-", "|", "-", " ", "-", "\n", "-", "\r", "-",
	)
	name = replacer.Replace(name)

	name = strings.Trim(name, "-.")

	if len(name) > 100 {
		name = name[:100]
	}

	if name == "" {
		name = "report"
	}

	return name
}
