package models

// RejectionReason identifies why a verification attempt was refused.
// The reason drives both the HTTP status and the attempt audit log;
// only a sanitized message ever reaches the client.
type RejectionReason string

const (
	RejectIncompleteInput    RejectionReason = "incomplete_input"
	RejectInvalidChallenge   RejectionReason = "invalid_challenge"
	RejectChallengeExpired   RejectionReason = "challenge_expired"
	RejectWrongAnswer        RejectionReason = "wrong_answer"
	RejectRateLimited        RejectionReason = "rate_limited"
	RejectInvalidOrUsedToken RejectionReason = "invalid_or_used_token"
	RejectDeviceMismatch     RejectionReason = "device_mismatch"
)

// RejectionError carries a rejection reason through the service layer
// as a regular error value.
type RejectionError struct {
	Reason RejectionReason
}

func (e *RejectionError) Error() string {
	return string(e.Reason)
}

// Reject returns a RejectionError for the given reason.
func Reject(reason RejectionReason) error {
	return &RejectionError{Reason: reason}
}
