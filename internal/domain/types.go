// Package domain contains the core entities of the oncology insights service:
// clinical records (cancer types, patients, treatments, outcomes, survival, imaging),
// aggregated statistics and the audit trail of risk-score predictions.
//
// The records are synthetic or aggregated. Nothing in this package carries genomic data.
package domain

import (
	"fmt"
	"strings"
)

// Gender represents the recorded gender of a patient
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// IsValid reports whether the gender is one of the accepted values
func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ParseGender converts a free-text label into a Gender.
// Matching is case-insensitive; unknown labels return an error.
func ParseGender(label string) (Gender, error) {
	for _, g := range []Gender{GenderMale, GenderFemale, GenderOther} {
		if strings.EqualFold(strings.TrimSpace(label), string(g)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown gender %q", label)
}

// OutcomeType represents the RECIST-style response category of a treatment
type OutcomeType string

const (
	OutcomeCompleteResponse   OutcomeType = "Complete Response"
	OutcomePartialResponse    OutcomeType = "Partial Response"
	OutcomeStableDisease      OutcomeType = "Stable Disease"
	OutcomeProgressiveDisease OutcomeType = "Progressive Disease"
)

// AllOutcomeTypes lists outcome categories in display order
var AllOutcomeTypes = []OutcomeType{
	OutcomeCompleteResponse,
	OutcomePartialResponse,
	OutcomeStableDisease,
	OutcomeProgressiveDisease,
}

// IsValid reports whether the outcome type is known
func (o OutcomeType) IsValid() bool {
	for _, known := range AllOutcomeTypes {
		if o == known {
			return true
		}
	}
	return false
}

// SurvivalStatus represents the vital status at last follow-up
type SurvivalStatus string

const (
	StatusAlive    SurvivalStatus = "Alive"
	StatusDeceased SurvivalStatus = "Deceased"
)

// IsValid reports whether the status is known
func (s SurvivalStatus) IsValid() bool {
	return s == StatusAlive || s == StatusDeceased
}

// ImageType represents the modality of a medical imaging study
type ImageType string

const (
	ImageCT         ImageType = "CT"
	ImageMRI        ImageType = "MRI"
	ImagePET        ImageType = "PET"
	ImageXRay       ImageType = "X-Ray"
	ImageUltrasound ImageType = "Ultrasound"
)

// IsValid reports whether the modality is known
func (t ImageType) IsValid() bool {
	switch t {
	case ImageCT, ImageMRI, ImagePET, ImageXRay, ImageUltrasound:
		return true
	}
	return false
}

// ClinicalDataType selects patient-level or sample-level attributes on cBioPortal
type ClinicalDataType string

const (
	ClinicalDataPatient ClinicalDataType = "PATIENT"
	ClinicalDataSample  ClinicalDataType = "SAMPLE"
)

// ParseClinicalDataType defaults to PATIENT for an empty value
func ParseClinicalDataType(value string) (ClinicalDataType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", string(ClinicalDataPatient):
		return ClinicalDataPatient, nil
	case string(ClinicalDataSample):
		return ClinicalDataSample, nil
	}
	return "", fmt.Errorf("unknown clinical data type %q", value)
}
