package service

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/oncology-insights-server/internal/domain"
	"github.com/oncology-insights-server/internal/logging"
	"github.com/oncology-insights-server/pkg/external"
)

// Aggregation limits
const (
	TopCancerTypes = 30
	RecentStudies  = 10
)

// CancerTypeSummary is the per cancer type rollup of public studies
type CancerTypeSummary struct {
	CancerTypeID string `json:"cancerTypeId"`
	Name         string `json:"name"`
	TotalSamples int    `json:"totalSamples"`
	StudyCount   int    `json:"studyCount"`
}

// StudySummary is the short form of a study listed on the dashboard
type StudySummary struct {
	Name       string `json:"name"`
	CancerType string `json:"cancerType"`
	Samples    int    `json:"samples"`
	Citation   string `json:"citation,omitempty"`
}

// AggregatedStats is the cBioPortal overview shown on the dashboard
type AggregatedStats struct {
	TotalCancerTypes    int                 `json:"totalCancerTypes"`
	TotalStudies        int                 `json:"totalStudies"`
	TotalSamples        int                 `json:"totalSamples"`
	SamplesByCancerType []CancerTypeSummary `json:"samplesByCancerType"`
	RecentStudies       []StudySummary      `json:"recentStudies"`
}

// CancerTypeDetails describes one cancer type and the studies referencing it
type CancerTypeDetails struct {
	CancerType   *external.CancerType `json:"cancerType"`
	Studies      []external.Study     `json:"studies"`
	TotalSamples int                  `json:"totalSamples"`
	StudyCount   int                  `json:"studyCount"`
}

// CohortExplorer summarises public cohort data from cBioPortal
type CohortExplorer struct {
	api    external.CBioPortalAPI
	logger *logrus.Logger
}

// NewCohortExplorer creates a new cohort explorer
func NewCohortExplorer(api external.CBioPortalAPI, logger *logrus.Logger) *CohortExplorer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CohortExplorer{api: api, logger: logger}
}

// emptyStats is returned when the upstream cannot be reached
func emptyStats() *AggregatedStats {
	return &AggregatedStats{
		SamplesByCancerType: []CancerTypeSummary{},
		RecentStudies:       []StudySummary{},
	}
}

// fetchAll loads the cancer type catalogue and the study list concurrently
func (e *CohortExplorer) fetchAll(ctx context.Context) ([]external.CancerType, []external.Study, error) {
	var (
		types   []external.CancerType
		studies []external.Study
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		types, err = e.api.GetCancerTypes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		studies, err = e.api.GetStudies(gctx, external.AggregateStudyPageSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return types, studies, nil
}

// AggregatedStats summarises studies and samples across all cancer types.
// Upstream failures yield an empty aggregate.
func (e *CohortExplorer) AggregatedStats(ctx context.Context) *AggregatedStats {
	types, studies, err := e.fetchAll(ctx)
	if err != nil {
		logging.Entry(ctx, e.logger).WithError(err).Warn("Failed to aggregate cBioPortal statistics")
		return emptyStats()
	}

	names := make(map[string]string, len(types))
	for _, ct := range types {
		names[ct.CancerTypeID] = ct.Name
	}

	stats := emptyStats()
	stats.TotalCancerTypes = len(types)
	stats.TotalStudies = len(studies)

	index := make(map[string]int)
	for _, st := range studies {
		stats.TotalSamples += st.AllSampleCount

		i, ok := index[st.CancerTypeID]
		if !ok {
			name := names[st.CancerTypeID]
			if name == "" {
				name = st.CancerTypeID
			}
			i = len(stats.SamplesByCancerType)
			index[st.CancerTypeID] = i
			stats.SamplesByCancerType = append(stats.SamplesByCancerType, CancerTypeSummary{
				CancerTypeID: st.CancerTypeID,
				Name:         name,
			})
		}
		stats.SamplesByCancerType[i].TotalSamples += st.AllSampleCount
		stats.SamplesByCancerType[i].StudyCount++
	}

	// ties keep the order in which the cancer type first appeared
	sort.SliceStable(stats.SamplesByCancerType, func(a, b int) bool {
		return stats.SamplesByCancerType[a].TotalSamples > stats.SamplesByCancerType[b].TotalSamples
	})
	if len(stats.SamplesByCancerType) > TopCancerTypes {
		stats.SamplesByCancerType = stats.SamplesByCancerType[:TopCancerTypes]
	}

	for _, st := range studies {
		if len(stats.RecentStudies) == RecentStudies {
			break
		}
		if !st.PublicStudy {
			continue
		}
		stats.RecentStudies = append(stats.RecentStudies, StudySummary{
			Name:       st.Name,
			CancerType: names[st.CancerTypeID],
			Samples:    st.AllSampleCount,
			Citation:   st.Citation,
		})
	}

	logging.Entry(ctx, e.logger).WithFields(logrus.Fields{
		"cancer_types": stats.TotalCancerTypes,
		"studies":      stats.TotalStudies,
		"samples":      stats.TotalSamples,
	}).Debug("Aggregated cBioPortal statistics")

	return stats
}

// CancerTypeDetails returns the cancer type with its studies, or nil when the
// upstream fails. CancerType is nil when the id is not in the catalogue.
func (e *CohortExplorer) CancerTypeDetails(ctx context.Context, cancerTypeID string) *CancerTypeDetails {
	types, studies, err := e.fetchAll(ctx)
	if err != nil {
		logging.Entry(ctx, e.logger).WithFields(logrus.Fields{
			"cancer_type_id": cancerTypeID,
			"error":          err,
		}).Warn("Failed to load cancer type details")
		return nil
	}

	details := &CancerTypeDetails{Studies: []external.Study{}}
	for i := range types {
		if types[i].CancerTypeID == cancerTypeID {
			ct := types[i]
			details.CancerType = &ct
			break
		}
	}
	for _, st := range studies {
		if st.CancerTypeID != cancerTypeID {
			continue
		}
		details.Studies = append(details.Studies, st)
		details.TotalSamples += st.AllSampleCount
	}
	details.StudyCount = len(details.Studies)

	return details
}

// CancerTypes lists the cancer type catalogue, empty on failure
func (e *CohortExplorer) CancerTypes(ctx context.Context) []external.CancerType {
	types, err := e.api.GetCancerTypes(ctx)
	if err != nil {
		logging.Entry(ctx, e.logger).WithError(err).Warn("Failed to fetch cancer types")
		return []external.CancerType{}
	}
	if types == nil {
		return []external.CancerType{}
	}
	return types
}

// Studies lists public studies, empty on failure
func (e *CohortExplorer) Studies(ctx context.Context, pageSize int) []external.Study {
	if pageSize <= 0 {
		pageSize = external.DefaultStudyPageSize
	}
	if pageSize > external.AggregateStudyPageSize {
		pageSize = external.AggregateStudyPageSize
	}

	studies, err := e.api.GetStudies(ctx, pageSize)
	if err != nil {
		logging.Entry(ctx, e.logger).WithError(err).Warn("Failed to fetch studies")
		return []external.Study{}
	}
	if studies == nil {
		return []external.Study{}
	}
	return studies
}

// ClinicalData lists clinical attributes of a study, empty on failure
func (e *CohortExplorer) ClinicalData(ctx context.Context, studyID string, dataType domain.ClinicalDataType) []external.ClinicalData {
	data, err := e.api.GetClinicalData(ctx, studyID, dataType)
	if err != nil {
		logging.Entry(ctx, e.logger).WithFields(logrus.Fields{
			"study_id": studyID,
			"error":    err,
		}).Warn("Failed to fetch clinical data")
		return []external.ClinicalData{}
	}
	if data == nil {
		return []external.ClinicalData{}
	}
	return data
}

// Patients lists the patients of a study, empty on failure
func (e *CohortExplorer) Patients(ctx context.Context, studyID string) []external.StudyPatient {
	patients, err := e.api.GetPatients(ctx, studyID)
	if err != nil {
		logging.Entry(ctx, e.logger).WithFields(logrus.Fields{
			"study_id": studyID,
			"error":    err,
		}).Warn("Failed to fetch study patients")
		return []external.StudyPatient{}
	}
	if patients == nil {
		return []external.StudyPatient{}
	}
	return patients
}
