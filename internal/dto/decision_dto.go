package dto

// DecisionRequest records an evaluator verdict on one submission.
type DecisionRequest struct {
	Verdict  string `json:"verdict" validate:"required,oneof=accepted rejected"`
	Feedback string `json:"feedback" validate:"required"`
}

// DecisionResponse wraps the updated submission plus a delivery warning when
// the decision committed but the notification email could not be sent.
type DecisionResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Warning    string             `json:"warning,omitempty"`
}
