package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/oncology-insights-server/internal/domain"
)

// Client defaults
const (
	DefaultCBioPortalURL = "https://www.cbioportal.org/api"
	DefaultStudyPageSize = 100
	// AggregateStudyPageSize is the page size used when computing cohort aggregates
	AggregateStudyPageSize = 1000
)

// StatusError reports a non-2xx answer from the upstream API
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cBioPortal API error on %s: %s", e.Endpoint, e.Status)
}

// CBioPortalClient handles interactions with the cBioPortal public REST API.
// Only clinical endpoints are exposed.
type CBioPortalClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewCBioPortalClient creates a new cBioPortal API client
func NewCBioPortalClient(config domain.CBioPortalConfig) *CBioPortalClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultCBioPortalURL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 5
	}

	return &CBioPortalClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// GetCancerTypes fetches the full cancer type catalogue
func (c *CBioPortalClient) GetCancerTypes(ctx context.Context) ([]CancerType, error) {
	var result []CancerType
	if err := c.getJSON(ctx, "/cancer-types", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetStudies fetches up to pageSize public studies
func (c *CBioPortalClient) GetStudies(ctx context.Context, pageSize int) ([]Study, error) {
	if pageSize <= 0 {
		pageSize = DefaultStudyPageSize
	}
	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))

	var result []Study
	if err := c.getJSON(ctx, "/studies", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetClinicalData fetches patient- or sample-level clinical attributes of a study
func (c *CBioPortalClient) GetClinicalData(ctx context.Context, studyID string, dataType domain.ClinicalDataType) ([]ClinicalData, error) {
	if strings.TrimSpace(studyID) == "" {
		return nil, fmt.Errorf("study ID cannot be empty")
	}
	if dataType == "" {
		dataType = domain.ClinicalDataPatient
	}
	params := url.Values{}
	params.Set("clinicalDataType", string(dataType))

	var result []ClinicalData
	endpoint := "/studies/" + url.PathEscape(studyID) + "/clinical-data"
	if err := c.getJSON(ctx, endpoint, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetPatients fetches the patients of a study
func (c *CBioPortalClient) GetPatients(ctx context.Context, studyID string) ([]StudyPatient, error) {
	if strings.TrimSpace(studyID) == "" {
		return nil, fmt.Errorf("study ID cannot be empty")
	}

	var result []StudyPatient
	if err := c.getJSON(ctx, "/studies/"+url.PathEscape(studyID)+"/patients", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *CBioPortalClient) getJSON(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "oncology-insights-server/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}
