package scoring

import (
	"fmt"
	"strings"
)

// CancerKind is the closed set of cancer types the estimators know about.
// Labels that match none of them map to CancerOther.
type CancerKind string

const (
	CancerPancreatic CancerKind = "Pancreatic"
	CancerLung       CancerKind = "Lung"
	CancerLiver      CancerKind = "Liver"
	CancerEsophageal CancerKind = "Esophageal"
	CancerBrain      CancerKind = "Brain"
	CancerStomach    CancerKind = "Stomach"
	CancerColorectal CancerKind = "Colorectal"
	CancerBreast     CancerKind = "Breast"
	CancerProstate   CancerKind = "Prostate"
	CancerThyroid    CancerKind = "Thyroid"
	CancerMelanoma   CancerKind = "Melanoma"
	CancerOther      CancerKind = "Other"
)

// KnownCancerKinds lists every named kind, excluding CancerOther
var KnownCancerKinds = []CancerKind{
	CancerPancreatic,
	CancerLung,
	CancerLiver,
	CancerEsophageal,
	CancerBrain,
	CancerStomach,
	CancerColorectal,
	CancerBreast,
	CancerProstate,
	CancerThyroid,
	CancerMelanoma,
}

// ParseCancerKind maps a label such as "lung" or "Breast Cancer" to a CancerKind
func ParseCancerKind(label string) CancerKind {
	kind, _ := lookupCancerKind(label)
	return kind
}

// ParseKnownCancerKind is the strict variant of ParseCancerKind used for configuration
func ParseKnownCancerKind(label string) (CancerKind, error) {
	kind, ok := lookupCancerKind(label)
	if !ok {
		return CancerOther, fmt.Errorf("unknown cancer type %q", label)
	}
	return kind, nil
}

func lookupCancerKind(label string) (CancerKind, bool) {
	name := strings.TrimSpace(label)
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, " cancer") {
		name = strings.TrimSpace(name[:len(name)-len(" cancer")])
	}
	for _, k := range KnownCancerKinds {
		if strings.EqualFold(name, string(k)) {
			return k, true
		}
	}
	return CancerOther, false
}

func (k CancerKind) String() string {
	return string(k)
}
