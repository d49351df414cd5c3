package models

const (
	QuestionTypeIceBreaking = "ice_breaking"
	QuestionTypeCommon      = "common"
	QuestionTypeCompetency  = "competency"
)

// QuestionSlot is one entry of the interview question plan.
type QuestionSlot struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Category      string `json:"category"`
	Type          string `json:"type"` // ice_breaking | common | competency
	MaxFollowUps  int    `json:"max_follow_ups"`
	Asked         bool   `json:"asked"`
	FollowUpCount int    `json:"follow_up_count"`
	IsCustom      bool   `json:"is_custom"`
}

// QuestionPlan is the ordered slot list plus the cursor. It is stored as a
// JSON document on the session row and mutated only by the interview engine,
// once per inbound candidate message.
type QuestionPlan struct {
	Questions    []QuestionSlot `json:"questions"`
	CurrentIndex int            `json:"current_index"`

	// Finished latches once the terminal "all questions completed" message
	// has been delivered; steps after that are invalid.
	Finished bool `json:"finished"`
}

// Current returns the active slot, or nil when the cursor ran past the end.
func (p *QuestionPlan) Current() *QuestionSlot {
	if p.CurrentIndex < 0 || p.CurrentIndex >= len(p.Questions) {
		return nil
	}
	return &p.Questions[p.CurrentIndex]
}

// Advance moves the cursor to the next slot. The cursor only ever moves
// forward.
func (p *QuestionPlan) Advance() {
	p.CurrentIndex++
}

// Exhausted reports whether every slot has been consumed.
func (p *QuestionPlan) Exhausted() bool {
	return p.CurrentIndex >= len(p.Questions)
}

// CanFollowUp reports whether the slot still has follow-up budget.
func (s *QuestionSlot) CanFollowUp() bool {
	return s.MaxFollowUps > 0 && s.FollowUpCount < s.MaxFollowUps
}
