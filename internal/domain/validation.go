package domain

// Severity classifies a validation failure. Errors indicate a client bug,
// warnings a suspicious submission, criticals near-certain tampering.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Reason identifies why a submission was rejected. The set is closed: the
// validator never emits a reason outside this list.
type Reason string

const (
	ReasonMissingRequiredFields Reason = "missing_required_fields"
	ReasonInvalidScoreType      Reason = "invalid_score_type"
	ReasonUnknownGame           Reason = "unknown_game"
	ReasonScoreExceedsMaximum   Reason = "score_exceeds_maximum"
	ReasonSessionNotFound       Reason = "session_not_found"
	ReasonSessionExpired        Reason = "session_expired"
	ReasonInsufficientActions   Reason = "insufficient_actions"
	ReasonSuspiciousScoreJump   Reason = "suspicious_score_jump"
	ReasonImpossibleDuration    Reason = "impossible_duration"
	ReasonSuspiciousScoreRate   Reason = "suspicious_score_rate"
	ReasonInvalidChecksum       Reason = "invalid_checksum"
)

var reasonSeverity = map[Reason]Severity{
	ReasonMissingRequiredFields: SeverityError,
	ReasonInvalidScoreType:      SeverityError,
	ReasonUnknownGame:           SeverityWarning,
	ReasonScoreExceedsMaximum:   SeverityCritical,
	ReasonSessionNotFound:       SeverityWarning,
	ReasonSessionExpired:        SeverityWarning,
	ReasonInsufficientActions:   SeverityWarning,
	ReasonSuspiciousScoreJump:   SeverityWarning,
	ReasonImpossibleDuration:    SeverityWarning,
	ReasonSuspiciousScoreRate:   SeverityWarning,
	ReasonInvalidChecksum:       SeverityCritical,
}

// SeverityOf returns the fixed severity for a rejection reason.
func (r Reason) SeverityOf() Severity {
	if s, ok := reasonSeverity[r]; ok {
		return s
	}
	return SeverityError
}

// ValidationResult is the verdict returned for a score submission.
// Verified is set only when a checksum was supplied and matched.
type ValidationResult struct {
	Valid    bool                   `json:"valid"`
	Reason   Reason                 `json:"reason,omitempty"`
	Severity Severity               `json:"severity,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Verified bool                   `json:"verified,omitempty"`
}

// Rejected builds a failure verdict with the reason's fixed severity.
func Rejected(reason Reason, details map[string]interface{}) ValidationResult {
	return ValidationResult{
		Valid:    false,
		Reason:   reason,
		Severity: reason.SeverityOf(),
		Details:  details,
	}
}

// Accepted builds a passing verdict.
func Accepted(verified bool) ValidationResult {
	return ValidationResult{Valid: true, Verified: verified}
}
