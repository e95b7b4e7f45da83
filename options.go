package modelselect

// DegenerateFallback selects the behavior when every hypothesis's evidence is
// zero or non-finite and the posterior probabilities cannot be normalized.
type DegenerateFallback int

const (
	// DegenerateFallbackError surfaces ErrDegenerateEvidence to the caller.
	DegenerateFallbackError DegenerateFallback = iota
	// DegenerateFallbackUniform substitutes a uniform distribution.
	DegenerateFallbackUniform
	// DegenerateFallbackHold carries the previous distribution forward.
	DegenerateFallbackHold
)

type Options struct {
	DegenerateFallback DegenerateFallback
}

func NewDefaultOptions() *Options {
	return &Options{
		DegenerateFallback: DegenerateFallbackError,
	}
}
