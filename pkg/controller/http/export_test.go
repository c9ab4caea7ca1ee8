package http

var (
	VerifyHelpScoutSignature  = verifyHelpScoutSignature
	ComputeHelpScoutSignature = computeHelpScoutSignature
	TimeoutMiddleware         = timeoutMiddleware
	RenderOutcome             = renderOutcome
)
