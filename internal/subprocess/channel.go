package subprocess

import "github.com/Sergeyir/HardProcessesLO/pkg/contract"

// Channel is the class of an incoming parton pair; each class has its own
// tree-level matrix element.
type Channel int

const (
	Unknown   Channel = iota
	QQSame            // q q -> q q (identical quarks, or identical antiquarks)
	QQDiff            // q q' -> q q' (different flavours, both quarks or both antiquarks)
	QQbarSame         // q qbar -> q qbar, q' qbar', g g
	QQbarDiff         // q qbar' -> q qbar'
	QG                // q g -> q g, either order
	GG                // g g -> g g, q qbar
)

func (c Channel) String() string {
	switch c {
	case QQSame:
		return "qq"
	case QQDiff:
		return "qq'"
	case QQbarSame:
		return "qqbar"
	case QQbarDiff:
		return "qqbar'"
	case QG:
		return "qg"
	case GG:
		return "gg"
	default:
		return "unknown"
	}
}

// Classify returns the channel class of the ordered incoming pair (a, b).
func Classify(a, b contract.Flavor) Channel {
	if !a.Valid() || !b.Valid() {
		return Unknown
	}
	switch {
	case a.IsGluon() && b.IsGluon():
		return GG
	case a.IsGluon() || b.IsGluon():
		return QG
	case a == b:
		return QQSame
	case a == -b:
		return QQbarSame
	case (a > 0) == (b > 0):
		return QQDiff
	default:
		return QQbarDiff
	}
}
