package models

import "math/bits"

// ClassificationSet is a presence set of classification codes. Iteration
// always follows AllClassificationCodes order, so output built from a set is
// deterministic regardless of input order.
type ClassificationSet uint16

// NewClassificationSet builds a set, silently ignoring codes outside the
// enumeration.
func NewClassificationSet(codes ...ClassificationCode) ClassificationSet {
	var s ClassificationSet
	for _, c := range codes {
		if i := c.index(); i >= 0 {
			s |= 1 << i
		}
	}
	return s
}

// Has reports whether c is in the set.
func (s ClassificationSet) Has(c ClassificationCode) bool {
	i := c.index()
	return i >= 0 && s&(1<<i) != 0
}

// Len returns the number of codes in the set.
func (s ClassificationSet) Len() int {
	return bits.OnesCount16(uint16(s))
}

// Codes returns the members in schema order.
func (s ClassificationSet) Codes() []ClassificationCode {
	var out []ClassificationCode
	for _, c := range AllClassificationCodes() {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// MarkerSet is a presence set of procedure markers.
type MarkerSet uint32

// NewMarkerSet builds a set, silently ignoring markers outside the enumeration.
func NewMarkerSet(markers ...ProcedureMarker) MarkerSet {
	var s MarkerSet
	for _, m := range markers {
		s = s.With(m)
	}
	return s
}

// With returns a copy of s including m.
func (s MarkerSet) With(m ProcedureMarker) MarkerSet {
	if i := m.index(); i >= 0 {
		s |= 1 << i
	}
	return s
}

// Has reports whether m is in the set.
func (s MarkerSet) Has(m ProcedureMarker) bool {
	i := m.index()
	return i >= 0 && s&(1<<i) != 0
}

// Markers returns the members in serialization order.
func (s MarkerSet) Markers() []ProcedureMarker {
	var out []ProcedureMarker
	for _, m := range AllProcedureMarkers() {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// Conflicts returns every exclusive pair fully present in s.
func (s MarkerSet) Conflicts() [][2]ProcedureMarker {
	var out [][2]ProcedureMarker
	for _, pair := range ExclusiveMarkerPairs {
		if s.Has(pair[0]) && s.Has(pair[1]) {
			out = append(out, pair)
		}
	}
	return out
}
