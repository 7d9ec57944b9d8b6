package external

import (
	"context"
	"time"

	"github.com/oncology-insights-server/internal/domain"
)

// CBioPortalAPI is the clinical subset of the cBioPortal public API used by the server
type CBioPortalAPI interface {
	GetCancerTypes(ctx context.Context) ([]CancerType, error)
	GetStudies(ctx context.Context, pageSize int) ([]Study, error)
	GetClinicalData(ctx context.Context, studyID string, dataType domain.ClinicalDataType) ([]ClinicalData, error)
	GetPatients(ctx context.Context, studyID string) ([]StudyPatient, error)
}

// ResponseCache stores encoded upstream responses by key
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// CancerType is a node of the cBioPortal OncoTree cancer type catalogue
type CancerType struct {
	CancerTypeID   string `json:"cancerTypeId"`
	Name           string `json:"name"`
	DedicatedColor string `json:"dedicatedColor"`
	ShortName      string `json:"shortName"`
	Parent         string `json:"parent,omitempty"`
}

// Study is a public cBioPortal study summary
type Study struct {
	StudyID        string `json:"studyId"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	CancerTypeID   string `json:"cancerTypeId"`
	AllSampleCount int    `json:"allSampleCount"`
	Citation       string `json:"citation,omitempty"`
	PMID           string `json:"pmid,omitempty"`
	PublicStudy    bool   `json:"publicStudy"`
}

// ClinicalData is one clinical attribute value of a patient or sample
type ClinicalData struct {
	ClinicalAttributeID string `json:"clinicalAttributeId"`
	Value               string `json:"value"`
	PatientID           string `json:"patientId"`
	SampleID            string `json:"sampleId,omitempty"`
	StudyID             string `json:"studyId"`
}

// StudyPatient is a patient enrolled in a cBioPortal study
type StudyPatient struct {
	PatientID        string `json:"patientId"`
	StudyID          string `json:"studyId"`
	UniquePatientKey string `json:"uniquePatientKey"`
	UniqueSampleKey  string `json:"uniqueSampleKey,omitempty"`
}
