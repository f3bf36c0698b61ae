package quiz

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	// AnswerID is the id of the correct option. Never serialized to
	// students; scoring is exact equality against it.
	AnswerID string `json:"answer_id,omitempty"`
}
