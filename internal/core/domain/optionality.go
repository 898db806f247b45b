package domain

import (
	"fmt"
	"slices"
)

// RootFeature identifies one feature of one workspace member, e.g. server/tls.
type RootFeature struct {
	Member  string
	Feature string
}

// String renders the "member/feature" form used in plan conditions.
func (rf RootFeature) String() string {
	return rf.Member + "/" + rf.Feature
}

// Optionality records why a dependency edge or package feature is active.
// It starts out optional with empty sets and is promoted to required during
// activation analysis.
type Optionality struct {
	required    bool
	requiredBy  map[string]struct{}
	activatedBy map[RootFeature]struct{}
}

// NewOptionality creates an optional, unactivated Optionality.
func NewOptionality() *Optionality {
	return &Optionality{
		requiredBy:  make(map[string]struct{}),
		activatedBy: make(map[RootFeature]struct{}),
	}
}

// MarkRequired promotes the entry to unconditionally required.
func (o *Optionality) MarkRequired() {
	o.required = true
}

// RequiredBy records that the entry is active whenever the given member is
// built, regardless of features.
func (o *Optionality) RequiredBy(member string) {
	if o.required {
		return
	}
	o.requiredBy[member] = struct{}{}
}

// ActivatedBy records that the given root feature activates the entry.
// Activation by a member that already requires the entry is redundant and
// is not recorded.
func (o *Optionality) ActivatedBy(rf RootFeature) {
	if o.required {
		return
	}
	if _, ok := o.requiredBy[rf.Member]; ok {
		return
	}
	o.activatedBy[rf] = struct{}{}
}

// IsRequired reports whether the entry is unconditionally required.
func (o *Optionality) IsRequired() bool {
	return o.required
}

// RequiredByCount returns how many members require the entry unconditionally.
func (o *Optionality) RequiredByCount() int {
	return len(o.requiredBy)
}

// Equal reports whether two optionalities describe the same condition.
func (o *Optionality) Equal(other *Optionality) bool {
	if o.required != other.required {
		return false
	}
	if len(o.requiredBy) != len(other.requiredBy) || len(o.activatedBy) != len(other.activatedBy) {
		return false
	}
	for member := range o.requiredBy {
		if _, ok := other.requiredBy[member]; !ok {
			return false
		}
	}
	for rf := range o.activatedBy {
		if _, ok := other.activatedBy[rf]; !ok {
			return false
		}
	}
	return true
}

// ToExpr renders the activation condition against the root feature set
// variable, e.g. `rootFeatures'`. Required entries render as true; optional
// entries render as a disjunction of membership tests, ordered
// deterministically.
func (o *Optionality) ToExpr(rootFeaturesVar string) BoolExpr {
	if o.required {
		return TrueExpr{}
	}

	terms := make([]string, 0, len(o.activatedBy)+len(o.requiredBy))
	for rf := range o.activatedBy {
		terms = append(terms, fmt.Sprintf("%s ? %q", rootFeaturesVar, rf.String()))
	}
	for member := range o.requiredBy {
		terms = append(terms, fmt.Sprintf("%s ? %q", rootFeaturesVar, member))
	}
	slices.Sort(terms)

	exprs := make([]BoolExpr, len(terms))
	for i, term := range terms {
		exprs[i] = Single(term)
	}
	return Ors(exprs...)
}
