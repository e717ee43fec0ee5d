package core

type OutcomeKind int

const (
	OutcomeAnswered OutcomeKind = iota
	OutcomeRefused
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAnswered:
		return "answered"
	case OutcomeRefused:
		return "refused"
	default:
		return "failed"
	}
}

// AnswerPath tells which strategy produced the answer text.
type AnswerPath string

const (
	PathNone       AnswerPath = "none"
	PathCanned     AnswerPath = "canned"
	PathGrounded   AnswerPath = "grounded"
	PathUngrounded AnswerPath = "ungrounded"
	PathRetrieval  AnswerPath = "retrieval"
)

// Outcome is the result of answering one user turn.
type Outcome struct {
	Kind      OutcomeKind
	Intent    Intent
	Path      AnswerPath
	Text      string
	Citations []RetrievalResult
	Err       error
}

func (o Outcome) Ok() bool {
	return o.Kind != OutcomeFailed
}
