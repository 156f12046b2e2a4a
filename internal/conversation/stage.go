// Package conversation implements the staged outbound-call flow: a
// fixed progression of talking stages with an objection branch, caps
// on exchange count and wall clock, and a terminal summary.
package conversation

// Stage identifies the current step of the scripted call flow.
type Stage string

const (
	StageGreeting             Stage = "greeting"
	StagePermissionCheck      Stage = "permission_check"
	StageIdentityVerification Stage = "identity_verification"
	StageProgramIntroduction  Stage = "program_introduction"
	StageBenefitsDiscussion   Stage = "benefits_discussion"
	StageObjectionHandling    Stage = "objection_handling"
	StagePricingDiscussion    Stage = "pricing_discussion"
	StageNextSteps            Stage = "next_steps"
	StageClosing              Stage = "closing"
	StageEnded                Stage = "ended"
)

// successor returns the stage entered after speaking in s. The
// objection branch out of benefits and pricing is decided separately
// by the engine; this table is the forward path only.
func (s Stage) successor() Stage {
	switch s {
	case StageGreeting:
		return StagePermissionCheck
	case StagePermissionCheck:
		return StageIdentityVerification
	case StageIdentityVerification:
		return StageProgramIntroduction
	case StageProgramIntroduction:
		return StageBenefitsDiscussion
	case StageBenefitsDiscussion:
		return StagePricingDiscussion
	case StageObjectionHandling:
		return StageBenefitsDiscussion
	case StagePricingDiscussion:
		return StageNextSteps
	case StageNextSteps:
		return StageClosing
	case StageClosing:
		return StageEnded
	default:
		return StageEnded
	}
}

// BranchesOnObjection reports whether an objection in the caller's
// utterance diverts this stage to objection handling.
func (s Stage) BranchesOnObjection() bool {
	return s == StageBenefitsDiscussion || s == StagePricingDiscussion
}

func (s Stage) Terminal() bool { return s == StageEnded }
