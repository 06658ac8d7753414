package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/gridflow/internal/builder"
	"github.com/specialistvlad/gridflow/internal/executor"
	"github.com/specialistvlad/gridflow/internal/graph"
	"gopkg.in/yaml.v3"
)

// CancelCommand typed at a manual prompt cancels the run.
const CancelCommand = "!cancel"

// RunWorkflow loads the definitions, runs the workflow and prompts for the
// output of every manual task it reaches. With save set, the workflow
// structure is persisted before the run starts.
func (a *App) RunWorkflow(ctx context.Context, save bool) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.RunWorkflow method started.")

	defs, err := a.loadDefinitions(ctx)
	if err != nil {
		return err
	}
	g, err := builder.BuildWorkflow(ctx, defs, a.handlers)
	if err != nil {
		return fmt.Errorf("failed to build workflow: %w", err)
	}
	if g.Len() == 0 {
		a.logger.Warn("No tasks found, execution not required.")
		return nil
	}

	if save {
		if err := a.saveGraphs(ctx, g, nil); err != nil {
			return err
		}
	}

	engine := executor.New(g, executor.WithSink(a.sink), executor.WithMetrics(a.metrics))
	a.logger.Info("🚀 Starting workflow run...", "nodes", g.Len())

	susp, err := engine.Run(ctx)
	for err == nil && susp != nil {
		output, cancel, perr := a.promptManual(susp)
		if perr != nil {
			return errors.Join(
				fmt.Errorf("reading output for %q: %w", susp.NodeID, perr),
				engine.Cancel(ctx),
			)
		}
		if cancel {
			if err := engine.Cancel(ctx); err != nil {
				return err
			}
			a.printWorkflow(g)
			return fmt.Errorf("run cancelled at %q: %w", susp.NodeID, executor.ErrCancelled)
		}
		susp, err = engine.ResolveManual(ctx, susp.NodeID, output)
	}

	a.printWorkflow(g)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	a.logger.Info("🏁 Execution finished.")
	return nil
}

// promptManual asks for the output of the suspended node on the input stream.
func (a *App) promptManual(susp *executor.Suspension) (output any, cancel bool, err error) {
	fmt.Fprintf(a.outW, "⏸️  %s is waiting for manual input\n", susp.NodeID)
	fmt.Fprintf(a.outW, "   input: %s\n", formatValue(susp.Input))
	fmt.Fprintf(a.outW, "   output (%s to cancel): ", CancelCommand)

	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, false, err
	}
	line = strings.TrimSpace(line)
	if line == CancelCommand {
		return nil, true, nil
	}
	return parseManualOutput(line), false, nil
}

// parseManualOutput reads a typed answer as a YAML scalar or collection, so
// "42" becomes a number and "[a, b]" a list. Anything that does not parse is
// kept as text.
func parseManualOutput(s string) any {
	if s == "" {
		return ""
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	return v
}

func (a *App) printWorkflow(g *graph.Store) {
	fmt.Fprintln(a.outW, "Results:")
	for _, n := range g.Nodes() {
		line := fmt.Sprintf("  %s [%s]", n.ID, n.State)
		if n.Result != nil {
			line += " = " + formatValue(n.Result)
		}
		if n.Err != nil {
			line += " (error: " + n.Err.Error() + ")"
		}
		fmt.Fprintln(a.outW, line)
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "(none)"
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = formatValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprint(t)
	}
}
