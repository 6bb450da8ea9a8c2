package dto

// DecisionEmailRequest is the wire contract of the internal send-email
// endpoint. All four fields are mandatory.
type DecisionEmailRequest struct {
	To       string `json:"to"`
	Name     string `json:"name"`
	Decision string `json:"decision"`
	Feedback string `json:"feedback"`
}

// DecisionEmailResponse mirrors the endpoint's documented response body:
// {"success":true} on delivery, {"error":"..."} otherwise.
type DecisionEmailResponse struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}
