package contract

import "fmt"

// Flavor identifies a parton: 1..5 are d, u, s, c, b, negative values their
// antiquarks and 0 is the gluon.
type Flavor int

const (
	Gluon   Flavor = 0
	Down    Flavor = 1
	Up      Flavor = 2
	Strange Flavor = 3
	Charm   Flavor = 4
	Bottom  Flavor = 5
)

// NumLightFlavors is the number of massless quark flavours (n_f).
const NumLightFlavors = 5

// GluonPDGID is the PDG code of the gluon used by PDF sets.
const GluonPDGID = 21

// Flavors returns the full parton set in ascending id order (-5..5).
func Flavors() []Flavor {
	out := make([]Flavor, 0, 2*NumLightFlavors+1)
	for id := -NumLightFlavors; id <= NumLightFlavors; id++ {
		out = append(out, Flavor(id))
	}
	return out
}

// Valid reports whether f belongs to the parton set.
func (f Flavor) Valid() bool { return f >= -NumLightFlavors && f <= NumLightFlavors }

func (f Flavor) IsGluon() bool { return f == Gluon }

// IsQuark is true for quarks and antiquarks.
func (f Flavor) IsQuark() bool { return f != Gluon && f.Valid() }

// PDGID maps the gluon sentinel to 21; quark ids are unchanged.
func (f Flavor) PDGID() int {
	if f == Gluon {
		return GluonPDGID
	}
	return int(f)
}

func (f Flavor) String() string {
	names := [...]string{"g", "d", "u", "s", "c", "b"}
	switch {
	case !f.Valid():
		return fmt.Sprintf("flavor(%d)", int(f))
	case f == Gluon:
		return "g"
	case f > 0:
		return names[f]
	default:
		return names[-f] + "bar"
	}
}
