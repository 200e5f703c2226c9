package reject

// ProblemWithTrace pairs the client-facing problem with the underlying
// cause for logging. The cause never leaves the process.
type ProblemWithTrace struct {
	Problem Problem
	Cause   error
}

func (pwt *ProblemWithTrace) Error() string {
	if pwt.Cause != nil {
		return pwt.Cause.Error()
	}
	return pwt.Problem.Title
}
