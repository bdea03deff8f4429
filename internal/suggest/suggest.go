// Package suggest picks the next best step on a journey and phrases a short
// coaching message for it. Build is a pure function of the journey.
package suggest

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/progress"
)

// Messages and template defaults.
const (
	MsgNoSteps      = "no steps available"
	MsgAllBlocked   = "all steps blocked — finish dependencies"
	MsgGenericStep  = "Take a small step on the selected level"
	DefaultTemplate = "Take a small step: move {amount} toward {node_title}"

	// TemplateKey is the advice template used for the coaching message.
	TemplateKey = "save_small"

	// nominalAmount fills the {amount} placeholder.
	nominalAmount = 5
	// missingETA sorts nodes without an ETA last.
	missingETA = 9999
	maxActions = 3
)

// Step is one suggested action for the chosen node.
type Step struct {
	ID        string
	Label     string
	SubnodeID string // set when the step completes a subnode
	Payload   *journey.SuggestedAction
}

// Action converts the step into a progress action on node nodeID.
func (s Step) Action(nodeID string) progress.Action {
	a := progress.Action{NodeID: nodeID, SubnodeID: s.SubnodeID}
	if s.Payload != nil && s.Payload.Amount != nil {
		a.Amount = journey.Float(*s.Payload.Amount)
	}
	return a
}

// Suggestion is the recommendation derived from a journey snapshot.
type Suggestion struct {
	ChosenNodeID string // empty when nothing is eligible
	Actions      []Step
	Messages     []string
}

// Chosen reports whether a node was picked.
func (s Suggestion) Chosen() bool {
	return s.ChosenNodeID != ""
}

// Build selects the next best node among unlocked and in-progress nodes,
// ordered by priority, then percent ascending, then ETA ascending, and
// proposes up to three actions for it.
func Build(j *journey.Journey) Suggestion {
	if j == nil || len(j.Nodes) == 0 {
		return Suggestion{Messages: []string{MsgNoSteps}}
	}

	var eligible []*journey.Node
	for i := range j.Nodes {
		if j.Nodes[i].Status.OrLocked().Eligible() {
			eligible = append(eligible, &j.Nodes[i])
		}
	}
	if len(eligible) == 0 {
		return Suggestion{Messages: []string{MsgAllBlocked}}
	}

	slices.SortStableFunc(eligible, compareNodes)
	chosen := eligible[0]

	return Suggestion{
		ChosenNodeID: chosen.ID,
		Actions:      Steps(chosen),
		Messages:     []string{message(j, chosen)},
	}
}

func compareNodes(a, b *journey.Node) int {
	if d := a.Priority.Score() - b.Priority.Score(); d != 0 {
		return d
	}
	if d := cmpFloat(a.Percent(), b.Percent()); d != 0 {
		return d
	}
	return cmpFloat(eta(a), eta(b))
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func eta(n *journey.Node) float64 {
	if d, ok := n.ETADays(); ok {
		return d
	}
	return missingETA
}

// Steps lists up to three incomplete subnodes of n, or, for a node with
// numeric progress, up to three percent increments that slice the remaining
// distance into roughly four front-loaded parts.
func Steps(n *journey.Node) []Step {
	if n == nil {
		return nil
	}
	var steps []Step
	for _, s := range n.Subnodes {
		if s.Status == journey.StatusCompleted {
			continue
		}
		steps = append(steps, Step{ID: s.ID, Label: s.Title, SubnodeID: s.ID, Payload: s.SuggestedAction.Clone()})
		if len(steps) == maxActions {
			return steps
		}
	}
	if len(steps) > 0 || !n.Progress.HasNumeric() {
		return steps
	}

	remain := math.Max(0, *n.Progress.TargetValue-*n.Progress.CurrentValue)
	step := math.Max(5, journey.Round(remain/4))
	for _, p := range []float64{step, step, step, remain - 3*step} {
		if p <= 0 {
			continue
		}
		steps = append(steps, Step{
			ID:      fmt.Sprintf("%s.auto_%d", n.ID, len(steps)+1),
			Label:   "+" + formatNumber(p) + "%",
			Payload: journey.NewPercentAction(p),
		})
		if len(steps) == maxActions {
			break
		}
	}
	return steps
}

func message(j *journey.Journey, n *journey.Node) string {
	if n.Progress == nil || n.Progress.TargetValue == nil || *n.Progress.TargetValue == 0 {
		return MsgGenericStep
	}
	tmpl, ok := j.Template(TemplateKey)
	if !ok {
		tmpl = DefaultTemplate
	}
	msg := strings.Replace(tmpl, "{amount}", strconv.Itoa(nominalAmount), 1)
	msg = strings.Replace(msg, "{node_title}", n.Title, 1)
	msg = strings.Replace(msg, "{percent}", formatNumber(math.Min(100, n.Percent()+nominalAmount)), 1)
	return msg
}

// Advice returns the coaching lines for a node's detail view: its advice
// entries followed by the risk note, if any.
func Advice(n *journey.Node) []string {
	if n == nil || n.AIHints == nil {
		return nil
	}
	lines := slices.Clone(n.AIHints.Advice)
	if n.AIHints.RiskNotes != "" {
		lines = append(lines, "Risk: "+n.AIHints.RiskNotes)
	}
	return lines
}

// ProgressLabel formats a percent for display, rounded and clamped to
// [0, 100].
func ProgressLabel(percent float64) string {
	return formatNumber(journey.Clamp(journey.Round(percent), 0, 100)) + "%"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
