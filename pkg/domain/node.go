package domain

// NodeType discriminates the closed set of assessment node variants.
type NodeType string

const (
	// NodeQuestion prompts the user and waits for a selected or typed answer.
	NodeQuestion NodeType = "question"
	// NodeMovementTest instructs a physical check; the client reports the
	// declared metric back.
	NodeMovementTest NodeType = "movement_test"
	// NodeAssessment is terminal: it carries the recommendation and has no
	// outgoing rules.
	NodeAssessment NodeType = "assessment"
)

// QuestionOption is one selectable answer for a question node.
type QuestionOption struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Value       any    `json:"value,omitempty" yaml:"value,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Recommendation is one suggested follow-up attached to a terminal node.
type Recommendation struct {
	Title   string `json:"title" yaml:"title"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
	VideoID string `json:"video_id,omitempty" yaml:"video_id,omitempty"`
}

// Node is one unit of the assessment tree. The variant-specific fields are
// populated according to Type; everything else stays zero.
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Type        NodeType `json:"type" yaml:"type"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`

	// Question fields.
	Prompt   string           `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Question string           `json:"question,omitempty" yaml:"question,omitempty"`
	SaveTo   string           `json:"save_to,omitempty" yaml:"save_to,omitempty"`
	Options  []QuestionOption `json:"options,omitempty" yaml:"options,omitempty"`

	// Movement test fields.
	MetricKey    string `json:"metric_key,omitempty" yaml:"metric_key,omitempty"`
	SuccessLabel string `json:"success_label,omitempty" yaml:"success_label,omitempty"`
	FailureLabel string `json:"failure_label,omitempty" yaml:"failure_label,omitempty"`

	// Assessment fields.
	Summary         string           `json:"summary,omitempty" yaml:"summary,omitempty"`
	Explanation     string           `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	RegionID        string           `json:"region_id,omitempty" yaml:"region_id,omitempty"`
	Confidence      float64          `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`

	// Rules defines the outgoing branches, in evaluation order. Terminal
	// nodes carry none.
	Rules []BranchRule `json:"rules,omitempty" yaml:"rules,omitempty"`
}

// Terminal reports whether reaching this node completes the session.
func (n *Node) Terminal() bool {
	return n.Type == NodeAssessment
}
