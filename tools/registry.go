// Package tools declares the tools the agent may invoke and dispatches
// invocations to their executors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/husain-clintel/Pharmascribe-sub000/config"
	"github.com/husain-clintel/Pharmascribe-sub000/model"
)

// ErrUnknownTool is wrapped by Lookup when no tool has the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// ExecutionContext carries the per-invocation values an executor may need.
type ExecutionContext struct {
	ReportID string
}

// Output is what an executor returns on success.
type Output struct {
	// Content must be JSON-serializable.
	Content any
	// StepSummary is an optional progress line for the end user.
	StepSummary string
}

// Handler executes one tool with its raw argument map.
type Handler func(ctx context.Context, ec ExecutionContext, args map[string]any) (Output, error)

type entry struct {
	decl mcptypes.Tool
	run  Handler
}

// Registry holds tool declarations in registration order.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]entry
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]entry)}
}

// Register adds or replaces a tool.
func (r *Registry) Register(decl mcptypes.Tool, run Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[decl.Name]; !exists {
		r.order = append(r.order, decl.Name)
	}
	r.tools[decl.Name] = entry{decl: decl, run: run}
}

// Declarations lists the declared tools in registration order.
func (r *Registry) Declarations() []mcptypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].decl)
	}
	return decls
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return e.run, nil
}

// Dispatch runs one invocation. It never fails: unknown tools, executor
// errors and panics all come back as error results the model can read.
func (r *Registry) Dispatch(ctx context.Context, call model.ToolCall, ec ExecutionContext) (result model.ToolResult) {
	result.ToolCallID = call.ID
	log := config.DebugLog.With(zap.String("tool", call.Name), zap.String("call_id", call.ID), zap.String("report_id", ec.ReportID))

	run, err := r.Lookup(call.Name)
	if err != nil {
		log.Warn("[Tools] unknown tool requested")
		result.IsError = true
		result.Error = "Unknown tool: " + call.Name
		return result
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("[Tools] executor panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			result = model.ToolResult{
				ToolCallID: call.ID,
				IsError:    true,
				Error:      fmt.Sprintf("%s failed: %v", call.Name, rec),
			}
		}
	}()

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	out, err := run(ctx, ec, args)
	if err != nil {
		log.Info("[Tools] executor returned error", zap.Error(err))
		result.IsError = true
		result.Error = err.Error()
		return result
	}

	result.Content = out.Content
	result.StepSummary = out.StepSummary
	log.Debug("[Tools] executed")
	return result
}

// decodeArgs converts the untyped argument map into the tool's typed input.
func decodeArgs(tool string, args map[string]any, dst any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("Invalid arguments for %s: %v", tool, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("Invalid arguments for %s: %v", tool, err)
	}
	return nil
}

func invalidArgs(tool, format string, a ...any) error {
	return fmt.Errorf("Invalid arguments for %s: %s", tool, fmt.Sprintf(format, a...))
}
