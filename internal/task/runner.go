package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/orgogpt/orgogpt/internal/session"
	"github.com/orgogpt/orgogpt/internal/vm"
)

const (
	PhaseTranslate = "translate"
	PhaseExecute   = "execute"
)

// Suggestions are offered whenever a command fails.
var Suggestions = []string{
	"ls -la",
	"pwd",
	"whoami",
	"date",
	"uname -a",
	"df -h",
}

func debugLog(format string, args ...interface{}) {
	if os.Getenv("ORGOGPT_DEBUG") == "1" {
		fmt.Printf("[DEBUG:TASK] "+format+"\n", args...)
	}
}

// Translator turns a natural-language request into one shell command.
// An empty model selects the translator's default.
type Translator interface {
	Translate(ctx context.Context, request, model string) (string, error)
}

// Runner executes tasks on a computer. It never returns an error: every
// failure ends up in the TaskResult.
type Runner struct {
	Translator Translator
}

// NewRunner creates a runner using t for natural-language input.
func NewRunner(t Translator) *Runner {
	return &Runner{Translator: t}
}

// Run classifies input, translates it if needed and executes it on c.
func (r *Runner) Run(ctx context.Context, c vm.Computer, input string, opts session.TaskOptions) *session.TaskResult {
	input = strings.TrimSpace(input)

	if Classify(input) == session.ModeCommand {
		result := r.execute(ctx, c, input, opts)
		result.Mode = session.ModeCommand
		return result
	}

	command, err := r.translate(ctx, input, opts.Model)
	if err != nil {
		debugLog("Translation failed for %q: %v", input, err)
		return &session.TaskResult{
			Success:   false,
			Error:     err.Error(),
			ProjectID: c.ID(),
			Mode:      session.ModeNaturalLanguage,
			Request:   input,
			Phase:     PhaseTranslate,
		}
	}
	debugLog("Translated %q -> %q", input, command)

	result := r.execute(ctx, c, command, opts)
	result.Mode = session.ModeNaturalLanguage
	result.Request = input
	result.Command = command
	return result
}

func (r *Runner) translate(ctx context.Context, input, model string) (string, error) {
	if r.Translator == nil {
		return "", &TranslationError{Input: input, Err: errors.New("no translator configured")}
	}
	command, err := r.Translator.Translate(ctx, input, model)
	if err != nil {
		return "", &TranslationError{Input: input, Err: err}
	}
	command = strings.TrimSpace(command)
	if command == "" {
		return "", &TranslationError{Input: input, Err: errors.New("translator returned an empty command")}
	}
	return command, nil
}

func (r *Runner) execute(ctx context.Context, c vm.Computer, command string, opts session.TaskOptions) *session.TaskResult {
	res, err := c.Exec(ctx, command)
	if err == nil && res != nil && res.Error != "" {
		err = errors.New(res.Error)
	}
	if err != nil {
		execErr := &ExecutionError{Command: command, Err: err}
		debugLog("%v", execErr)
		result := &session.TaskResult{
			Success:     false,
			Error:       execErr.Error(),
			ProjectID:   c.ID(),
			Command:     command,
			Phase:       PhaseExecute,
			Suggestions: append([]string(nil), Suggestions...),
		}
		if res != nil {
			result.Output = res.Output
		}
		return result
	}

	result := &session.TaskResult{
		Success:   true,
		ProjectID: c.ID(),
		Command:   command,
	}
	if res != nil {
		result.Output = res.Output
	}

	if !opts.SkipScreenshot {
		shot, err := c.Screenshot(ctx)
		if err != nil {
			debugLog("Screenshot failed, omitting: %v", err)
		} else if shot != "" {
			result.Screenshots = []string{shot}
		}
	}
	return result
}
