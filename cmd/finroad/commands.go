package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/npratt/finroad/internal/chat"
	"github.com/npratt/finroad/internal/chatapi"
	"github.com/npratt/finroad/internal/config"
	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/layout"
	"github.com/npratt/finroad/internal/progress"
	"github.com/npratt/finroad/internal/session"
	"github.com/npratt/finroad/internal/suggest"
	"github.com/npratt/finroad/internal/tui"
)

// openRoadmap loads the journey document at path into a roadmap session.
func openRoadmap(path string, logger *slog.Logger) (*session.Roadmap, error) {
	j, err := journey.Load(path)
	if err != nil {
		return nil, err
	}
	return session.NewRoadmap(j, session.WithLogger(logger)), nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type layoutEntry struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Level     int     `json:"level"`
	Column    int     `json:"column"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Draggable bool    `json:"draggable"`
}

type layoutReport struct {
	Nodes []layoutEntry     `json:"nodes"`
	Cut   []layout.BackEdge `json:"cut,omitempty"`
	Bound layout.Rect       `json:"bounds"`
}

// writeLayout prints every node's level, column and effective position.
func writeLayout(w io.Writer, j *journey.Journey, l *layout.Layout, asJSON bool) error {
	report := layoutReport{Cut: l.Cut, Bound: l.Bounds()}
	idx := j.Index()
	for _, id := range l.Order {
		p, _ := l.Position(id)
		report.Nodes = append(report.Nodes, layoutEntry{
			ID:        id,
			Title:     idx[id].Title,
			Level:     l.Levels[id],
			Column:    l.Columns[id],
			X:         p.X,
			Y:         p.Y,
			Draggable: l.Draggable(id),
		})
	}
	if asJSON {
		return writeJSON(w, report)
	}

	var b strings.Builder
	for _, e := range report.Nodes {
		pin := ""
		if e.Draggable {
			pin = "  (placed)"
		}
		fmt.Fprintf(&b, "%-16s level %d  col %d  at (%g, %g)%s\n", e.ID, e.Level, e.Column, e.X, e.Y, pin)
	}
	for _, c := range report.Cut {
		fmt.Fprintf(&b, "cycle: dependency %s -> %s ignored\n", c.From, c.To)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type stepReport struct {
	ID        string  `json:"id"`
	Label     string  `json:"label"`
	SubnodeID string  `json:"subnode_id,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
}

type suggestionReport struct {
	Node     string       `json:"node,omitempty"`
	Title    string       `json:"title,omitempty"`
	Percent  float64      `json:"percent"`
	Actions  []stepReport `json:"actions"`
	Messages []string     `json:"messages"`
}

// writeSuggestion prints the next best step.
func writeSuggestion(w io.Writer, j *journey.Journey, s suggest.Suggestion, asJSON bool) error {
	report := suggestionReport{Node: s.ChosenNodeID, Messages: s.Messages, Actions: []stepReport{}}
	if n := j.Node(s.ChosenNodeID); n != nil {
		report.Title = n.Title
		report.Percent = n.Percent()
	}
	for _, step := range s.Actions {
		sr := stepReport{ID: step.ID, Label: step.Label, SubnodeID: step.SubnodeID}
		if step.Payload != nil && step.Payload.Amount != nil {
			sr.Amount = *step.Payload.Amount
		}
		report.Actions = append(report.Actions, sr)
	}
	if asJSON {
		return writeJSON(w, report)
	}

	var b strings.Builder
	if s.Chosen() {
		fmt.Fprintf(&b, "next: %s (%s)\n", report.Title, suggest.ProgressLabel(report.Percent))
		for i, step := range report.Actions {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step.Label)
		}
	}
	for _, msg := range report.Messages {
		fmt.Fprintf(&b, "%s\n", msg)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// applyRequest describes one progress change made from the command line.
// Step selects the n-th suggested step of the node (1-based) and wins over
// the other fields; Percent wins over Subnode and Amount.
type applyRequest struct {
	NodeID    string
	SubnodeID string
	Amount    *float64
	Percent   *float64
	Step      int
}

var errNothingToApply = errors.New("nothing to apply: pass --step, --percent, --subnode or --amount")

// applyToFile applies req to the journey at path and writes the document
// back when it changed. The node defaults to the suggested one.
func applyToFile(path string, req applyRequest, logger *slog.Logger) (*journey.Journey, bool, error) {
	if req.Percent != nil && !journey.Finite(*req.Percent) {
		return nil, false, fmt.Errorf("percent must be a finite number, got %v", *req.Percent)
	}
	if req.Amount != nil && !journey.Finite(*req.Amount) {
		return nil, false, fmt.Errorf("amount must be a finite number, got %v", *req.Amount)
	}

	r, err := openRoadmap(path, logger)
	if err != nil {
		return nil, false, err
	}
	defer r.Close()

	j := r.Journey()
	if req.NodeID == "" {
		req.NodeID = r.Suggestion().ChosenNodeID
	}
	n := j.Node(req.NodeID)
	if n == nil {
		if req.NodeID == "" {
			return nil, false, errors.New("no node given and nothing to suggest")
		}
		return nil, false, fmt.Errorf("unknown node %q", req.NodeID)
	}

	var changed bool
	switch {
	case req.Step > 0:
		steps := suggest.Steps(n)
		if req.Step > len(steps) {
			return nil, false, fmt.Errorf("node %q has %d suggested step(s), no step %d", n.ID, len(steps), req.Step)
		}
		changed = r.Apply(steps[req.Step-1].Action(n.ID))
	case req.Percent != nil:
		changed = r.SetPercent(n.ID, *req.Percent)
	case req.SubnodeID != "" || req.Amount != nil:
		changed = r.Apply(progress.Action{NodeID: n.ID, SubnodeID: req.SubnodeID, Amount: req.Amount})
	default:
		return nil, false, errNothingToApply
	}

	next := r.Journey()
	if !changed {
		return next, false, nil
	}
	if err := journey.Save(path, next); err != nil {
		return nil, false, fmt.Errorf("save journey: %w", err)
	}
	logger.Info("journey updated", "path", path, "node", n.ID, "percent", next.Node(n.ID).Percent())
	return next, true, nil
}

// validateJourney prints structural problems and dependency cycles. It
// returns an error when anything was found.
func validateJourney(w io.Writer, j *journey.Journey) error {
	var problems []string
	if err := journey.Validate(j); err != nil {
		problems = append(problems, strings.Split(err.Error(), "\n")...)
	}
	for _, cycle := range layout.FindCycles(j.Nodes) {
		problems = append(problems, "dependency cycle: "+strings.Join(cycle, ", "))
	}

	if len(problems) == 0 {
		_, err := fmt.Fprintf(w, "ok: %d nodes, %d connections\n", len(j.Nodes), len(j.Connections))
		return err
	}
	for _, p := range problems {
		_, _ = fmt.Fprintf(w, "  %s\n", p)
	}
	return fmt.Errorf("%d problem(s) found", len(problems))
}

// newChat wires the chat stores and I/O flow for the configured backend.
func newChat(cfg *config.Config, logger *slog.Logger) *tui.Chat {
	api := chatapi.New(cfg.Chat.BaseURL, cfg.Chat.Timeout)
	threads := session.NewThreads(session.Thread{ID: cfg.Chat.ThreadID, Title: "Chat " + cfg.Chat.ThreadID})
	messages := session.NewMessages()
	models := session.NewModels()
	if m, ok := session.ParseModel(cfg.Chat.Model); ok {
		models.SetActive(m)
	}
	return &tui.Chat{
		IO:       chat.New(api, threads, messages, chat.WithLogger(logger)),
		Threads:  threads,
		Messages: messages,
		Models:   models,
	}
}

// chatPrompt wraps question in the configured context prompt for a node.
// Without a node the question is sent as is.
func chatPrompt(cfg *config.Config, j *journey.Journey, nodeID, question string) (string, error) {
	if nodeID == "" {
		return question, nil
	}
	n := j.Node(nodeID)
	if n == nil {
		return "", fmt.Errorf("unknown node %q", nodeID)
	}
	tmpl, err := cfg.LoadContextPrompt()
	if err != nil {
		return "", err
	}
	return config.ExpandPrompt(tmpl, config.PromptVars{
		JourneyTitle:   j.Title,
		OverallPercent: suggest.ProgressLabel(j.OverallPercent()),
		NodeTitle:      n.Title,
		NodeStatus:     string(n.Status.OrLocked()),
		NodePercent:    suggest.ProgressLabel(n.Percent()),
		Question:       question,
	}), nil
}

// writeMessages prints a thread transcript.
func writeMessages(w io.Writer, msgs []session.Message) error {
	if len(msgs) == 0 {
		_, err := fmt.Fprintln(w, "No messages yet.")
		return err
	}
	var b strings.Builder
	for _, m := range msgs {
		if m.Typing {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", m.Time, m.Role, m.Text)
		if m.Failed() {
			fmt.Fprintf(&b, "        failed: %s\n", m.Error)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// followRoadmap prints the suggestion each time the roadmap is reloaded,
// until ctx is done or the roadmap closes.
func followRoadmap(ctx context.Context, w io.Writer, r *session.Roadmap, errs <-chan error, now func() time.Time) error {
	changes := r.Subscribe()
	defer r.Unsubscribe(changes)

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if change.Kind != session.JourneyReplaced {
				continue
			}
			_, _ = fmt.Fprintf(w, "%s %s  %s\n", now().Format("15:04:05"), change.Journey.Title,
				suggest.ProgressLabel(change.Journey.OverallPercent()))
			if err := writeSuggestion(w, change.Journey, r.Suggestion(), false); err != nil {
				return err
			}
		case err := <-errs:
			_, _ = fmt.Fprintf(w, "%s reload failed: %v\n", now().Format("15:04:05"), err)
		}
	}
}
