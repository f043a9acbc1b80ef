package domain

// UserIntent is the routing decision made once per conversation from the
// user's first message.
type UserIntent string

const (
	IntentRedFlag          UserIntent = "red_flag"
	IntentAcuteRelief      UserIntent = "acute_relief"
	IntentRehabRequest     UserIntent = "rehab_request"
	IntentGeneralEducation UserIntent = "general_education"
	IntentOutOfScope       UserIntent = "out_of_scope"
)

// Valid reports whether the intent is one of the closed classifier outputs.
func (i UserIntent) Valid() bool {
	switch i {
	case IntentRedFlag, IntentAcuteRelief, IntentRehabRequest,
		IntentGeneralEducation, IntentOutOfScope:
		return true
	}
	return false
}

// ChatTurn is one entry of the conversation transcript, kept for the
// education collaborator.
type ChatTurn struct {
	From string `json:"from"` // "user" or "bot"
	Text string `json:"text"`
}
