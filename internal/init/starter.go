package initcmd

import (
	"bytes"

	"github.com/npratt/finroad/internal/journey"
	"github.com/npratt/finroad/internal/progress"
)

// StarterJourneyFile is the roadmap written next to the project config.
const StarterJourneyFile = "journey.yaml"

// StarterJourney returns a small three-step savings roadmap to edit from.
func StarterJourney() *journey.Journey {
	j := &journey.Journey{
		ID:          "my-first-goal",
		Title:       "My first savings goal",
		Description: "Replace these steps with your own plan",
		Category:    "savings",
		Goal: &journey.Goal{
			Title:        "Savings target",
			TargetValue:  journey.Float(500000),
			CurrentValue: journey.Float(0),
			Unit:         "KZT",
		},
		Nodes: []journey.Node{
			{
				ID:       "budget",
				Title:    "Track a month of spending",
				Kind:     journey.KindTask,
				Status:   journey.StatusUnlocked,
				Priority: journey.PriorityHigh,
				Subnodes: []journey.Subnode{
					{ID: "categories", Title: "Pick spending categories", Kind: journey.KindTask},
					{ID: "review", Title: "Review the month", Kind: journey.KindTask},
				},
				AIHints: &journey.AIHints{
					Advice: []string{"Log every purchase for 30 days before cutting anything."},
				},
			},
			{
				ID:           "cushion",
				Title:        "Emergency cushion",
				Kind:         journey.KindMilestone,
				Status:       journey.StatusLocked,
				Priority:     journey.PriorityHigh,
				Dependencies: []string{"budget"},
				Estimates:    &journey.Estimates{ETADays: journey.Float(90)},
				Progress:     &journey.Progress{TargetValue: journey.Float(150000), CurrentValue: journey.Float(0)},
			},
			{
				ID:           "goal",
				Title:        "Reach the savings target",
				Kind:         journey.KindMilestone,
				Status:       journey.StatusLocked,
				Priority:     journey.PriorityMedium,
				Dependencies: []string{"cushion"},
				Progress:     &journey.Progress{TargetValue: journey.Float(500000), CurrentValue: journey.Float(0)},
				Rewards: []journey.Reward{
					{ID: "saver", Title: "Saver", Type: journey.RewardBadge},
				},
			},
		},
		Connections: []journey.Connection{
			{ID: "budget-cushion", From: "budget", To: "cushion"},
			{ID: "cushion-goal", From: "cushion", To: "goal"},
		},
	}
	j = progress.UnlockPass(j)
	j.Progress = &journey.JourneyProgress{OverallPercent: journey.Float(progress.OverallPercent(j.Nodes))}
	return j
}

func starterContent() (string, error) {
	var buf bytes.Buffer
	if err := journey.Encode(&buf, StarterJourney(), journey.FormatYAML); err != nil {
		return "", err
	}
	return buf.String(), nil
}
