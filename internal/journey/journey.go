// Package journey defines the roadmap document: a journey toward a financial
// goal made of nodes, subnodes, connections and rewards.
package journey

import "math"

// Status is the lifecycle state of a node or subnode.
type Status string

const (
	StatusLocked     Status = "locked"
	StatusUnlocked   Status = "unlocked"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// String returns the status, or "locked" when unset.
func (s Status) String() string {
	return string(s.OrLocked())
}

// OrLocked returns s, or StatusLocked when s is empty.
func (s Status) OrLocked() Status {
	if s == "" {
		return StatusLocked
	}
	return s
}

// Eligible reports whether a node in this status can be worked on now.
func (s Status) Eligible() bool {
	return s == StatusUnlocked || s == StatusInProgress
}

// Priority ranks nodes for the suggestion engine.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Score maps a priority to its sort key: high=0, medium=1, low=2, unset=3.
func (p Priority) Score() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// String returns the priority label, defaulting to medium for display.
func (p Priority) String() string {
	if p == "" {
		return string(PriorityMedium)
	}
	return string(p)
}

// Kind classifies a node or subnode.
type Kind string

const (
	KindMilestone Kind = "milestone"
	KindTask      Kind = "task"
	KindChallenge Kind = "challenge"
	KindLearning  Kind = "learning"
)

// Point is a position in graph space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Estimates holds optional time and effort estimates.
type Estimates struct {
	ETADays     *float64 `json:"eta_days,omitempty" yaml:"eta_days,omitempty"`
	EffortHours *float64 `json:"effort_hours,omitempty" yaml:"effort_hours,omitempty"`
}

// Progress tracks numeric progress toward a node's target.
type Progress struct {
	TargetValue  *float64 `json:"target_value,omitempty" yaml:"target_value,omitempty"`
	CurrentValue *float64 `json:"current_value,omitempty" yaml:"current_value,omitempty"`
	Percent      *float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// HasNumeric reports whether both target and current values are present.
func (p *Progress) HasNumeric() bool {
	return p != nil && p.TargetValue != nil && p.CurrentValue != nil
}

// EffectivePercent returns the explicit percent, or one derived from
// current/target when a non-zero target exists, or 0.
func (p *Progress) EffectivePercent() float64 {
	if p == nil {
		return 0
	}
	if p.Percent != nil {
		return *p.Percent
	}
	if p.TargetValue != nil && *p.TargetValue != 0 {
		current := 0.0
		if p.CurrentValue != nil {
			current = *p.CurrentValue
		}
		if v := math.Min(100, Round(current / *p.TargetValue * 100)); !math.IsNaN(v) {
			return v
		}
	}
	return 0
}

// Subnode is a smaller actionable item within a node.
type Subnode struct {
	ID              string           `json:"id" yaml:"id" validate:"required"`
	Title           string           `json:"title" yaml:"title" validate:"required"`
	Kind            Kind             `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=milestone task challenge learning"`
	Status          Status           `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=locked unlocked in_progress completed"`
	Points          *float64         `json:"points,omitempty" yaml:"points,omitempty"`
	SuggestedAction *SuggestedAction `json:"suggested_action,omitempty" yaml:"suggested_action,omitempty"`
}

// Action is a node-level action carried verbatim from the source document.
type Action struct {
	ID        string         `json:"id" yaml:"id" validate:"required"`
	Title     string         `json:"title" yaml:"title"`
	Type      string         `json:"type,omitempty" yaml:"type,omitempty"`
	Completed bool           `json:"completed,omitempty" yaml:"completed,omitempty"`
	Payload   map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// RewardType classifies a reward.
type RewardType string

const (
	RewardBadge    RewardType = "badge"
	RewardXP       RewardType = "xp"
	RewardCashback RewardType = "cashback"
)

// Reward is a badge, XP grant or cashback attached to a node or journey.
type Reward struct {
	ID       string     `json:"id" yaml:"id" validate:"required"`
	Title    string     `json:"title,omitempty" yaml:"title,omitempty"`
	Type     RewardType `json:"type" yaml:"type" validate:"omitempty,oneof=badge xp cashback"`
	Icon     string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Earned   bool       `json:"earned,omitempty" yaml:"earned,omitempty"`
	EarnedAt string     `json:"earned_at,omitempty" yaml:"earned_at,omitempty"`
	Value    *float64   `json:"value,omitempty" yaml:"value,omitempty"`
}

// AIHints carries coaching text for a node.
type AIHints struct {
	Advice    []string `json:"advice,omitempty" yaml:"advice,omitempty"`
	Reminders []string `json:"reminders,omitempty" yaml:"reminders,omitempty"`
	RiskNotes string   `json:"risk_notes,omitempty" yaml:"risk_notes,omitempty"`
}

// Node is a milestone, task, challenge or learning unit in the journey graph.
// A non-nil Position marks the node as user-placed and draggable; nodes
// without one are laid out automatically.
type Node struct {
	ID           string     `json:"id" yaml:"id" validate:"required"`
	Title        string     `json:"title" yaml:"title" validate:"required"`
	Summary      string     `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	Kind         Kind       `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=milestone task challenge learning"`
	Icon         string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	Position     *Point     `json:"position,omitempty" yaml:"position,omitempty"`
	Status       Status     `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=locked unlocked in_progress completed"`
	Priority     Priority   `json:"priority,omitempty" yaml:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
	Estimates    *Estimates `json:"estimates,omitempty" yaml:"estimates,omitempty"`
	Progress     *Progress  `json:"progress,omitempty" yaml:"progress,omitempty"`
	Dependencies []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Subnodes     []Subnode  `json:"subnodes,omitempty" yaml:"subnodes,omitempty" validate:"dive"`
	Actions      []Action   `json:"actions,omitempty" yaml:"actions,omitempty" validate:"dive"`
	Rewards      []Reward   `json:"rewards,omitempty" yaml:"rewards,omitempty" validate:"dive"`
	AIHints      *AIHints   `json:"ai_hints,omitempty" yaml:"ai_hints,omitempty"`
}

// Draggable reports whether the node carries an explicit position.
func (n *Node) Draggable() bool {
	return n.Position != nil
}

// Percent returns the node's effective progress percent.
func (n *Node) Percent() float64 {
	return n.Progress.EffectivePercent()
}

// ETADays returns the ETA estimate and whether one is set.
func (n *Node) ETADays() (float64, bool) {
	if n.Estimates == nil || n.Estimates.ETADays == nil {
		return 0, false
	}
	return *n.Estimates.ETADays, true
}

// ConnectionKind selects how an edge is drawn.
type ConnectionKind string

const (
	ConnectionDirect      ConnectionKind = "direct"
	ConnectionCurved      ConnectionKind = "curved"
	ConnectionConditional ConnectionKind = "conditional"
)

// Connection is a directed edge between two nodes, used for rendering.
type Connection struct {
	ID        string         `json:"id" yaml:"id" validate:"required"`
	From      string         `json:"from" yaml:"from" validate:"required"`
	To        string         `json:"to" yaml:"to" validate:"required"`
	Kind      ConnectionKind `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=direct curved conditional"`
	Condition string         `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Default theme colors.
const (
	DefaultPrimary = "#10B981"
	DefaultAccent  = "#F59E0B"
	DefaultBg      = "#F8FAFC"
)

// Colors holds the journey's palette.
type Colors struct {
	Primary string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Accent  string `json:"accent,omitempty" yaml:"accent,omitempty"`
	Bg      string `json:"bg,omitempty" yaml:"bg,omitempty"`
}

// Theme describes the journey's visual style.
type Theme struct {
	Style   string  `json:"style,omitempty" yaml:"style,omitempty"`
	Colors  *Colors `json:"colors,omitempty" yaml:"colors,omitempty"`
	Pattern string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}

// Palette returns primary, accent and background colors with defaults applied.
func (t *Theme) Palette() (primary, accent, bg string) {
	primary, accent, bg = DefaultPrimary, DefaultAccent, DefaultBg
	if t == nil || t.Colors == nil {
		return
	}
	if t.Colors.Primary != "" {
		primary = t.Colors.Primary
	}
	if t.Colors.Accent != "" {
		accent = t.Colors.Accent
	}
	if t.Colors.Bg != "" {
		bg = t.Colors.Bg
	}
	return
}

// Goal is the target metric the journey works toward.
type Goal struct {
	Title           string   `json:"title,omitempty" yaml:"title,omitempty"`
	TargetValue     *float64 `json:"target_value,omitempty" yaml:"target_value,omitempty"`
	CurrentValue    *float64 `json:"current_value,omitempty" yaml:"current_value,omitempty"`
	Unit            string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Deadline        string   `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	ProgressPercent *float64 `json:"progress_percent,omitempty" yaml:"progress_percent,omitempty"`
}

// JourneyProgress is the aggregate progress over all nodes.
type JourneyProgress struct {
	OverallPercent *float64 `json:"overall_percent,omitempty" yaml:"overall_percent,omitempty"`
	LastUpdated    string   `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

// AIGuides configures the coaching voice and its message templates.
type AIGuides struct {
	Persona              string            `json:"persona,omitempty" yaml:"persona,omitempty"`
	Language             string            `json:"language,omitempty" yaml:"language,omitempty"`
	MaxSuggestionsPerDay *int              `json:"max_suggestions_per_day,omitempty" yaml:"max_suggestions_per_day,omitempty"`
	AdviceTemplates      map[string]string `json:"advice_templates,omitempty" yaml:"advice_templates,omitempty"`
}

// Journey is the root roadmap document.
type Journey struct {
	ID          string           `json:"journey_id" yaml:"journey_id" validate:"required"`
	Title       string           `json:"title" yaml:"title" validate:"required"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string           `json:"category,omitempty" yaml:"category,omitempty"`
	Theme       *Theme           `json:"theme,omitempty" yaml:"theme,omitempty"`
	Meta        map[string]any   `json:"meta,omitempty" yaml:"meta,omitempty"`
	Goal        *Goal            `json:"goal,omitempty" yaml:"goal,omitempty"`
	Progress    *JourneyProgress `json:"progress,omitempty" yaml:"progress,omitempty"`
	Nodes       []Node           `json:"nodes" yaml:"nodes" validate:"dive"`
	Connections []Connection     `json:"connections,omitempty" yaml:"connections,omitempty" validate:"dive"`
	Rewards     []Reward         `json:"rewards,omitempty" yaml:"rewards,omitempty" validate:"dive"`
	AIGuides    *AIGuides        `json:"ai_guides,omitempty" yaml:"ai_guides,omitempty"`
}

// Node returns the node with the given id, or nil.
func (j *Journey) Node(id string) *Node {
	for i := range j.Nodes {
		if j.Nodes[i].ID == id {
			return &j.Nodes[i]
		}
	}
	return nil
}

// Index maps node ids to pointers into j.Nodes.
// The first node wins when ids repeat.
func (j *Journey) Index() map[string]*Node {
	idx := make(map[string]*Node, len(j.Nodes))
	for i := range j.Nodes {
		if _, ok := idx[j.Nodes[i].ID]; !ok {
			idx[j.Nodes[i].ID] = &j.Nodes[i]
		}
	}
	return idx
}

// OverallPercent returns the aggregate progress, or 0 when unset.
func (j *Journey) OverallPercent() float64 {
	if j.Progress == nil || j.Progress.OverallPercent == nil {
		return 0
	}
	return Clamp(*j.Progress.OverallPercent, 0, 100)
}

// Template returns the advice template for key, if any.
func (j *Journey) Template(key string) (string, bool) {
	if j.AIGuides == nil || j.AIGuides.AdviceTemplates == nil {
		return "", false
	}
	t, ok := j.AIGuides.AdviceTemplates[key]
	return t, ok && t != ""
}

// Round rounds half toward positive infinity, the way percent and position
// values are rounded throughout the roadmap.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Clamp limits v to [lo, hi]. NaN, from either v or hi, yields lo.
func Clamp(v, lo, hi float64) float64 {
	c := math.Max(lo, math.Min(hi, v))
	if math.IsNaN(c) {
		return lo
	}
	return c
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float returns a pointer to v, for building optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
