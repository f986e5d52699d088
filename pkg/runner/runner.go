// Package runner is the terminal host: it drives an assessment run over a
// plain reader/writer pair, which keeps it testable and embeddable in any
// CLI front end.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BiAffectBridge/cairn"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// ContentRenderer transforms node content before output, e.g. markdown to
// ANSI. Nil means raw text.
type ContentRenderer func(string) (string, error)

// Runner executes the interactive loop for one run.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	Logger   *slog.Logger

	// Store, when set, persists the result tree on completion and on
	// save-progress exits.
	Store ports.ResultStore
}

// NewRunner creates a runner over stdin/stdout.
func NewRunner() *Runner {
	return &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run starts the assessment and loops until the run finishes. It returns
// the final result tree.
//
// Participant commands: "back" steps backward, "exit" abandons the run,
// "save" saves progress and stops. Any other input answers the current
// question, or simply continues on non-question nodes.
func (r *Runner) Run(ctx context.Context, engine *cairn.Engine, assessmentID string) (*domain.Result, error) {
	ctrl := &controller{}
	root, err := engine.Start(ctx, assessmentID, ctrl)
	if err != nil {
		return nil, err
	}
	return r.loop(ctx, root, ctrl)
}

// Resume restores a saved run and continues its loop.
func (r *Runner) Resume(ctx context.Context, engine *cairn.Engine, assessmentID string, saved *domain.Result) (*domain.Result, error) {
	ctrl := &controller{}
	root, err := engine.Restore(ctx, assessmentID, saved, ctrl)
	if err != nil {
		return nil, err
	}
	return r.loop(ctx, root, ctrl)
}

func (r *Runner) loop(ctx context.Context, root ports.RootNodeState, ctrl *controller) (*domain.Result, error) {
	scanner := bufio.NewScanner(r.Input)

	for !ctrl.finished {
		state := ctrl.current
		if state == nil {
			return nil, domain.NewConfigurationError(root.Node().Identifier, "no current node to display")
		}
		r.display(state)

		if !scanner.Scan() {
			// Input exhausted: treat as abandoning the run.
			if err := root.Close(ctx, domain.ReasonEarlyExit); err != nil {
				return nil, err
			}
			break
		}
		input := strings.TrimSpace(scanner.Text())

		var err error
		switch input {
		case "back":
			err = state.GoBackward(ctx, nil)
			if errors.Is(err, domain.ErrNoPreviousNode) {
				fmt.Fprintln(r.Output, "Already at the first step.")
				err = nil
			}
		case "exit":
			err = root.Close(ctx, domain.ReasonEarlyExit)
		case "save":
			err = root.Close(ctx, domain.ReasonSaveProgress)
		default:
			if q, ok := state.(ports.QuestionState); ok && input != "" {
				q.SetAnswer(input)
			}
			err = state.GoForward(ctx, nil)
			if errors.Is(err, domain.ErrAnswerRequired) {
				fmt.Fprintln(r.Output, "An answer is required.")
				err = nil
			}
		}
		if err != nil {
			return nil, err
		}
	}

	return r.finish(ctx, root, ctrl)
}

func (r *Runner) finish(ctx context.Context, root ports.RootNodeState, ctrl *controller) (*domain.Result, error) {
	result := root.Result()
	if ctrl.cause != nil {
		return result, ctrl.cause
	}

	switch ctrl.reason {
	case domain.ReasonComplete:
		fmt.Fprintln(r.Output, "Assessment complete. Thank you!")
	case domain.ReasonSaveProgress:
		fmt.Fprintln(r.Output, "Progress saved.")
	case domain.ReasonEarlyExit:
		fmt.Fprintln(r.Output, "Assessment ended early.")
	}

	if r.Store != nil && (ctrl.reason == domain.ReasonComplete || ctrl.reason == domain.ReasonSaveProgress) {
		if err := r.Store.Save(ctx, root.RunID(), result); err != nil {
			r.Logger.Warn("failed to persist run result", "run_id", root.RunID(), "err", err)
		}
	}
	return result, nil
}

func (r *Runner) display(state ports.NodeState) {
	node := state.Node()

	if parent := state.Parent(); parent != nil {
		if p := parent.Progress(); p != nil {
			fmt.Fprintf(r.Output, "[step %d of %d]\n", p.Current+1, p.Total)
		}
	}

	if node.Title != "" {
		fmt.Fprintln(r.Output, r.render("# "+node.Title))
	}
	if node.Subtitle != "" {
		fmt.Fprintln(r.Output, r.render(node.Subtitle))
	}
	if node.Detail != "" {
		fmt.Fprintln(r.Output, r.render(node.Detail))
	}

	if q, ok := state.(ports.QuestionState); ok {
		if len(node.InputOptions) > 0 {
			for i, opt := range node.InputOptions {
				fmt.Fprintf(r.Output, "  %d) %s\n", i+1, opt)
			}
		}
		if prev := q.Answer(); prev != nil {
			fmt.Fprintf(r.Output, "(current answer: %v)\n", prev)
		}
		fmt.Fprint(r.Output, "> ")
		return
	}
	fmt.Fprint(r.Output, "(press enter to continue) ")
}

func (r *Runner) render(content string) string {
	if r.Renderer == nil {
		return content
	}
	out, err := r.Renderer(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}
