package ai

import "fmt"

// DefaultQuestionSet is the static fallback used when generation fails. The
// interview must still run, so the set covers the usual arc: ice breaker,
// common questions, then competency probes.
func DefaultQuestionSet(mode string) []Question {
	base := []Question{
		{Text: "Thank you for joining today. To start, could you briefly introduce yourself?", Type: "ice_breaking", Category: "Introduction", MaxFollowUps: 0},
		{Text: "What motivated you to apply for this position?", Type: "common", Category: "Motivation", MaxFollowUps: 1},
		{Text: "Tell me about a project you are most proud of and your role in it.", Type: "competency", Category: "Experience", MaxFollowUps: 2},
		{Text: "Describe a difficult problem you faced at work and how you solved it.", Type: "competency", Category: "Problem solving", MaxFollowUps: 2},
		{Text: "How do you usually handle disagreement within a team?", Type: "common", Category: "Collaboration", MaxFollowUps: 1},
	}

	if mode == "REAL" {
		base = append(base,
			Question{Text: "Which of your skills do you consider strongest, and how have you applied it recently?", Type: "competency", Category: "Skills", MaxFollowUps: 2},
			Question{Text: "Where do you see yourself in three years?", Type: "common", Category: "Career", MaxFollowUps: 1},
		)
	}

	for i := range base {
		base[i].ID = fmt.Sprintf("default-%d", i+1)
	}
	return base
}
