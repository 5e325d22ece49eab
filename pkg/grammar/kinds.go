/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: kinds.go
Description: Statistic kind definitions for the Statscope grammar. Defines the six
recognized line kinds, the type lattice ordering used by the scanner, and string
conversions for the extraction record format.
*/

package grammar

import "fmt"

// Kind identifies the semantic kind of a statistics line
type Kind int

const (
	KindScalar Kind = iota
	KindVector
	KindDistribution
	KindHistogram
	KindSummary
	KindConfiguration
)

// latticeRank maps lattice kinds to their position in the type lattice
// Scalar < Vector < Distribution < Histogram. Summary and Configuration
// are not lattice members; the scanner resolves them separately.
var latticeRank = map[Kind]int{
	KindScalar:       0,
	KindVector:       1,
	KindDistribution: 2,
	KindHistogram:    3,
}

// OnLattice returns true if the kind participates in the type lattice
func (k Kind) OnLattice() bool {
	_, ok := latticeRank[k]
	return ok
}

// LatticeMax returns the higher of two lattice kinds
// Both kinds must be lattice members; non-members are returned unchanged
// in favor of the receiver.
func (k Kind) LatticeMax(other Kind) Kind {
	ra, aok := latticeRank[k]
	rb, bok := latticeRank[other]
	if !aok {
		return k
	}
	if !bok {
		return k
	}
	if rb > ra {
		return other
	}
	return k
}

// String returns the kind name used in extraction records and catalogs
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindVector:
		return "Vector"
	case KindDistribution:
		return "Distribution"
	case KindHistogram:
		return "Histogram"
	case KindSummary:
		return "Summary"
	case KindConfiguration:
		return "Configuration"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a kind name back to its Kind value
// Returns an error for unrecognized names
func ParseKind(name string) (Kind, error) {
	switch name {
	case "Scalar":
		return KindScalar, nil
	case "Vector":
		return KindVector, nil
	case "Distribution":
		return KindDistribution, nil
	case "Histogram":
		return KindHistogram, nil
	case "Summary":
		return KindSummary, nil
	case "Configuration":
		return KindConfiguration, nil
	default:
		return 0, fmt.Errorf("unknown statistic kind: %q", name)
	}
}
