package validation

// SubmitRequest is the payload for POST /api/submit.
type SubmitRequest struct {
	Email  string  `json:"email" validate:"required"`  // submitter address
	Amount float64 `json:"amount" validate:"required"` // submission amount, JSON number
}

// FormInput is the raw, client-side form state before a submission is sent.
// Amount arrives as the text typed into the field and must parse to a
// positive number; validation failures never reach the server.
type FormInput struct {
	Email  string `validate:"required"`
	Amount string `validate:"required"`
}
