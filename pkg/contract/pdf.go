package contract

// PDF is the parton distribution service.
// Implementations are initialised once and must be safe for concurrent reads.
type PDF interface {
	// XfxQ2 returns x*f(x, Q^2) for the PDG id pid (gluon = 21).
	XfxQ2(pid int, x, q2 float64) float64
	// AlphasQ2 returns the strong coupling at scale Q^2.
	AlphasQ2(q2 float64) float64
}

// PDFInfo is optional metadata exposed by PDF sets.
type PDFInfo interface {
	SetName() string
	// Range reports the validity window of the set.
	Range() (xMin, xMax, q2Min, q2Max float64)
}
