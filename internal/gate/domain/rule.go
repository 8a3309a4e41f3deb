package domain

// RedirectDescriptor carries everything the interception page needs to
// start the correct unlock protocol: the target identifier, the governing
// mode, and that mode's parameters.
type RedirectDescriptor struct {
	Identifier      string        `json:"identifier"`
	Mode            Mode          `json:"mode"`
	WaitSeconds     int           `json:"wait_seconds,omitempty"`
	ChallengeKind   ChallengeKind `json:"challenge_kind,omitempty"`
	ApproverContact string        `json:"approver_contact,omitempty"`
}

// CompiledRule is the platform-enforced blocking primitive derived from
// policy plus grants. Rule IDs are dense, 1-based, and reassigned on every
// recompute; a rule exists for a target iff the target is enabled and no
// active grant covers its identifier.
type CompiledRule struct {
	RuleID     int                `json:"rule_id"`
	Identifier string             `json:"identifier"`
	Redirect   RedirectDescriptor `json:"redirect"`
}
