package journey

import "maps"

// Clone returns a deep copy of the journey. The roadmap view works on a
// clone so in-view edits never reach the caller's document.
func (j *Journey) Clone() *Journey {
	if j == nil {
		return nil
	}
	c := *j
	c.Theme = cloneTheme(j.Theme)
	c.Meta = cloneMap(j.Meta)
	if j.Goal != nil {
		g := *j.Goal
		g.TargetValue = cloneFloat(j.Goal.TargetValue)
		g.CurrentValue = cloneFloat(j.Goal.CurrentValue)
		g.ProgressPercent = cloneFloat(j.Goal.ProgressPercent)
		c.Goal = &g
	}
	if j.Progress != nil {
		p := *j.Progress
		p.OverallPercent = cloneFloat(j.Progress.OverallPercent)
		c.Progress = &p
	}
	c.Nodes = CloneNodes(j.Nodes)
	if j.Connections != nil {
		c.Connections = append([]Connection(nil), j.Connections...)
	}
	c.Rewards = cloneRewards(j.Rewards)
	if j.AIGuides != nil {
		a := *j.AIGuides
		if j.AIGuides.MaxSuggestionsPerDay != nil {
			v := *j.AIGuides.MaxSuggestionsPerDay
			a.MaxSuggestionsPerDay = &v
		}
		if j.AIGuides.AdviceTemplates != nil {
			a.AdviceTemplates = maps.Clone(j.AIGuides.AdviceTemplates)
		}
		c.AIGuides = &a
	}
	return &c
}

// CloneNodes deep-copies a node list.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	c := n
	if n.Position != nil {
		p := *n.Position
		c.Position = &p
	}
	if n.Estimates != nil {
		e := Estimates{
			ETADays:     cloneFloat(n.Estimates.ETADays),
			EffortHours: cloneFloat(n.Estimates.EffortHours),
		}
		c.Estimates = &e
	}
	c.Progress = n.Progress.Clone()
	if n.Dependencies != nil {
		c.Dependencies = append([]string(nil), n.Dependencies...)
	}
	if n.Subnodes != nil {
		c.Subnodes = make([]Subnode, len(n.Subnodes))
		for i, s := range n.Subnodes {
			s.Points = cloneFloat(s.Points)
			s.SuggestedAction = s.SuggestedAction.Clone()
			c.Subnodes[i] = s
		}
	}
	if n.Actions != nil {
		c.Actions = make([]Action, len(n.Actions))
		for i, a := range n.Actions {
			a.Payload = cloneMap(a.Payload)
			c.Actions[i] = a
		}
	}
	c.Rewards = cloneRewards(n.Rewards)
	if n.AIHints != nil {
		h := AIHints{
			RiskNotes: n.AIHints.RiskNotes,
		}
		if n.AIHints.Advice != nil {
			h.Advice = append([]string(nil), n.AIHints.Advice...)
		}
		if n.AIHints.Reminders != nil {
			h.Reminders = append([]string(nil), n.AIHints.Reminders...)
		}
		c.AIHints = &h
	}
	return c
}

// Clone returns a deep copy of the progress, or nil.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	return &Progress{
		TargetValue:  cloneFloat(p.TargetValue),
		CurrentValue: cloneFloat(p.CurrentValue),
		Percent:      cloneFloat(p.Percent),
	}
}

// Clone returns a deep copy of the action, or nil.
func (a *SuggestedAction) Clone() *SuggestedAction {
	if a == nil {
		return nil
	}
	return &SuggestedAction{
		Kind:   a.Kind,
		Amount: cloneFloat(a.Amount),
		Params: cloneMap(a.Params),
	}
}

func cloneTheme(t *Theme) *Theme {
	if t == nil {
		return nil
	}
	c := *t
	if t.Colors != nil {
		colors := *t.Colors
		c.Colors = &colors
	}
	return &c
}

func cloneRewards(rewards []Reward) []Reward {
	if rewards == nil {
		return nil
	}
	out := make([]Reward, len(rewards))
	for i, r := range rewards {
		r.Value = cloneFloat(r.Value)
		out[i] = r
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
