package model

// Mode selects whether forward passes track gradients.
type Mode int

const (
	// Training records operations for the backward pass. Initial mode.
	Training Mode = iota
	// Evaluation runs purely numerically.
	Evaluation
)

func (m Mode) String() string {
	switch m {
	case Training:
		return "training"
	case Evaluation:
		return "evaluation"
	default:
		return "unknown"
	}
}
