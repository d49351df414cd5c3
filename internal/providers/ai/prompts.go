package ai

import (
	"fmt"
	"strings"
)

func profileLines(profile *CandidateContext) string {
	if profile == nil {
		return "Candidate profile: not provided."
	}
	var b strings.Builder
	b.WriteString("Candidate profile:\n")
	if len(profile.Skills) > 0 {
		fmt.Fprintf(&b, "- skills: %s\n", strings.Join(profile.Skills, ", "))
	}
	fmt.Fprintf(&b, "- years of experience: %d\n", profile.ExperienceYears)
	if profile.DesiredPosition != "" {
		fmt.Fprintf(&b, "- desired position: %s\n", profile.DesiredPosition)
	}
	return b.String()
}

func jobLines(job *JobContext) string {
	if job == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("Job posting:\n")
	if job.Title != "" {
		fmt.Fprintf(&b, "- title: %s\n", job.Title)
	}
	if job.Position != "" {
		fmt.Fprintf(&b, "- position: %s\n", job.Position)
	}
	if len(job.Requirements) > 0 {
		n := len(job.Requirements)
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "- requirements: %s\n", strings.Join(job.Requirements[:n], ", "))
	}
	return b.String()
}

func transcriptLines(entries []TranscriptEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Content)
	}
	return b.String()
}

func questionSetPrompt(profile *CandidateContext, job *JobContext, mode string, n int) string {
	var b strings.Builder
	b.WriteString("You are a professional, friendly HR interviewer preparing a structured interview.\n")
	fmt.Fprintf(&b, "Generate exactly %d interview questions tailored to the candidate (%s mode).\n", n, mode)
	b.WriteString("Open with an ice-breaking question, then common questions, then competency questions.\n\n")
	b.WriteString(profileLines(profile))
	b.WriteString(jobLines(job))
	b.WriteString("\nRespond with JSON only, shaped as ")
	b.WriteString(`{"questions":[{"id":"q1","text":"...","type":"ice_breaking|common|competency","category":"...","max_follow_ups":0}]}`)
	return b.String()
}

func followUpPrompt(tail []TranscriptEntry) string {
	var b strings.Builder
	b.WriteString("You are a professional, friendly HR interviewer.\n")
	b.WriteString("Given the recent conversation below, ask one natural follow-up question that digs deeper into the candidate's last answer. Ask exactly one question.\n\n")
	b.WriteString(transcriptLines(tail))
	b.WriteString("\nRespond with JSON only, shaped as ")
	b.WriteString(`{"question":"..."}`)
	return b.String()
}

func scoringPrompt(transcript []TranscriptEntry, profile *CandidateContext) string {
	var b strings.Builder
	b.WriteString("You are an objective interview assessor. Evaluate the candidate based on the full interview transcript below.\n")
	b.WriteString("Score each dimension from 0 to 100.\n\n")
	b.WriteString(profileLines(profile))
	b.WriteString("\nTranscript:\n")
	b.WriteString(transcriptLines(transcript))
	b.WriteString("\nRespond with JSON only, shaped as ")
	b.WriteString(`{"scores":{"communication_score":0,"technical_score":0,"problem_solving_score":0,"overall_score":0},` +
		`"feedback":{"strengths":["..."],"weaknesses":["..."],"summary":"...","recommended_positions":["..."]}}`)
	return b.String()
}
