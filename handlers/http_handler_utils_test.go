package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giygas/fdadrugs-api/config"
	"github.com/giygas/fdadrugs-api/data"
	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/search"
	"github.com/giygas/fdadrugs-api/wiki"
	"github.com/go-chi/chi/v5"
)

// ============================================================================
// TEST DATA FACTORY
// ============================================================================

type TestDataFactory struct{}

func NewTestDataFactory() *TestDataFactory {
	return &TestDataFactory{}
}

// CreateDrug builds a finished drug with one product
func (f *TestDataFactory) CreateDrug(id, name string, generics []string, classes ...string) entities.Drug {
	pharmClasses := make([]entities.PharmClass, 0, len(classes))
	for _, c := range classes {
		pharmClasses = append(pharmClasses, entities.PharmClass{ClassName: c, ClassType: "EPC"})
	}

	var proprietary *string
	if name != "" {
		proprietary = &name
	}

	return entities.Drug{
		BasicDrug: entities.BasicDrug{
			Finished:            true,
			DrugID:              id,
			ProductType:         "HUMAN PRESCRIPTION DRUG",
			ProprietaryName:     proprietary,
			NonProprietaryNames: generics,
			DosageForms:         []string{"TABLET"},
			Routes:              []string{"ORAL"},
			LabelerName:         "Test Labs",
			PharmClasses:        pharmClasses,
		},
		Products: []entities.Product{
			{
				ProductNDC:         id + "-ndc",
				Substances:         []entities.Substance{{Name: "SUBSTANCE", Strength: "10", Unit: "mg/1"}},
				Packages:           []entities.Package{{NDCPackageCode: id + "-pkg", Description: []string{"30 TABLET in 1 BOTTLE"}}},
				StartMarketingDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
				MarketingCategory:  "NDA",
			},
		},
	}
}

// CreateCorpus returns a small corpus with a few well known drugs
func (f *TestDataFactory) CreateCorpus() *interfaces.Corpus {
	drugs := []entities.Drug{
		f.CreateDrug("zyp-1", "Zyprexa", []string{"Olanzapine"}, "Atypical Antipsychotic"),
		f.CreateDrug("zyp-2", "Zyprexa Relprevv", []string{"Olanzapine Pamoate"}, "Atypical Antipsychotic"),
		f.CreateDrug("adv-1", "Advil", []string{"Ibuprofen"}, "Nonsteroidal Anti-inflammatory Drug"),
		f.CreateDrug("tyl-1", "Tylenol", []string{"Acetaminophen"}),
		f.CreateDrug("gen-1", "", []string{"Olanzapine"}),
	}
	return &interfaces.Corpus{
		Drugs: drugs,
		ClassFrequency: []entities.ClassFrequency{
			{ClassName: "Atypical Antipsychotic", ClassType: "EPC", Count: 2},
			{ClassName: "Nonsteroidal Anti-inflammatory Drug", ClassType: "EPC", Count: 1},
		},
		OrphanPackages: []string{},
	}
}

// CreateDataContainer publishes the test corpus into a real container
func (f *TestDataFactory) CreateDataContainer(t testing.TB) *data.DataContainer {
	t.Helper()
	dc := data.NewDataContainer()
	if err := dc.Publish(f.CreateCorpus(), &interfaces.DataQualityReport{}); err != nil {
		t.Fatalf("Failed to publish test corpus: %v", err)
	}
	return dc
}

// CreateSearcher builds a real searcher over the test corpus
func (f *TestDataFactory) CreateSearcher(t testing.TB, store interfaces.DataStore) *search.Searcher {
	t.Helper()
	cfg := config.DefaultSearchConfig()
	cfg.Workers = 2
	s, err := search.NewSearcher(store, cfg)
	if err != nil {
		t.Fatalf("Failed to build searcher: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// ============================================================================
// MOCK BUILDERS
// ============================================================================

type MockSearcherBuilder struct {
	searcher *MockSearcher
}

func NewMockSearcherBuilder() *MockSearcherBuilder {
	return &MockSearcherBuilder{
		searcher: &MockSearcher{
			result: &entities.SearchResult{Items: []entities.BasicDrug{}},
		},
	}
}

func (b *MockSearcherBuilder) WithResult(result *entities.SearchResult) *MockSearcherBuilder {
	b.searcher.result = result
	return b
}

func (b *MockSearcherBuilder) WithSearchError(err error) *MockSearcherBuilder {
	b.searcher.searchErr = err
	return b
}

func (b *MockSearcherBuilder) WithDrug(drug *entities.Drug) *MockSearcherBuilder {
	b.searcher.drug = drug
	return b
}

func (b *MockSearcherBuilder) WithLookupError(err error) *MockSearcherBuilder {
	b.searcher.lookupErr = err
	return b
}

func (b *MockSearcherBuilder) Build() *MockSearcher {
	return b.searcher
}

type MockWikiBuilder struct {
	client *MockWikiClient
}

func NewMockWikiBuilder() *MockWikiBuilder {
	return &MockWikiBuilder{client: &MockWikiClient{}}
}

func (b *MockWikiBuilder) WithSummary(summary *entities.WikiSummary) *MockWikiBuilder {
	b.client.summary = summary
	return b
}

func (b *MockWikiBuilder) WithError(err error) *MockWikiBuilder {
	b.client.err = err
	return b
}

func (b *MockWikiBuilder) Build() *MockWikiClient {
	return b.client
}

// ============================================================================
// HTTP TEST HELPER
// ============================================================================

// HTTPTestHelper provides utilities for HTTP handler testing
type HTTPTestHelper struct {
	t *testing.T
}

func NewHTTPTestHelper(t *testing.T) *HTTPTestHelper {
	return &HTTPTestHelper{t: t}
}

// ExecuteRequest executes an HTTP handler with given parameters
func (h *HTTPTestHelper) ExecuteRequest(handler http.HandlerFunc, method, path string, urlParams map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)

	if len(urlParams) > 0 {
		rctx := chi.NewRouteContext()
		for key, value := range urlParams {
			rctx.URLParams.Add(key, value)
		}
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// AssertJSONResponse asserts that response contains valid JSON with expected status
func (h *HTTPTestHelper) AssertJSONResponse(resp *httptest.ResponseRecorder, expectedStatus int, target any) {
	h.t.Helper()
	if resp.Code != expectedStatus {
		h.t.Errorf("Expected status %d, got %d (body: %s)", expectedStatus, resp.Code, resp.Body.String())
	}

	if err := json.Unmarshal(resp.Body.Bytes(), target); err != nil {
		h.t.Errorf("Response should be valid JSON, got error: %v", err)
	}
}

// AssertErrorResponse asserts an error body with the expected status and message
func (h *HTTPTestHelper) AssertErrorResponse(resp *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	h.t.Helper()
	var errorResp map[string]any
	h.AssertJSONResponse(resp, expectedStatus, &errorResp)

	if errorResp["error"] != http.StatusText(expectedStatus) {
		h.t.Errorf("Expected error %q, got %v", http.StatusText(expectedStatus), errorResp["error"])
	}
	if errorResp["code"] != float64(expectedStatus) {
		h.t.Errorf("Expected code %d, got %v", expectedStatus, errorResp["code"])
	}
	if expectedMessage != "" && errorResp["message"] != expectedMessage {
		h.t.Errorf("Expected message %q, got %v", expectedMessage, errorResp["message"])
	}
}

// ============================================================================
// MOCK IMPLEMENTATIONS
// ============================================================================

// MockSearcher is a canned interfaces.Searcher
type MockSearcher struct {
	result    *entities.SearchResult
	searchErr error
	drug      *entities.Drug
	lookupErr error
	lastQuery entities.SearchParams
}

func (m *MockSearcher) Search(params entities.SearchParams) (*entities.SearchResult, error) {
	m.lastQuery = params
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.result, nil
}

func (m *MockSearcher) Lookup(drugID string) (*entities.Drug, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if m.drug == nil {
		return nil, &search.NotFoundError{ID: drugID}
	}
	return m.drug, nil
}

// MockWikiClient is a canned interfaces.WikiClient
type MockWikiClient struct {
	summary  *entities.WikiSummary
	err      error
	lastTerm string
}

func (m *MockWikiClient) Summary(ctx context.Context, term string) (*entities.WikiSummary, error) {
	m.lastTerm = term
	if m.err != nil {
		return nil, m.err
	}
	if m.summary == nil {
		return nil, wiki.ErrNotFound
	}
	return m.summary, nil
}

// MockHealthChecker returns a fixed health status
type MockHealthChecker struct {
	status     string
	data       map[string]any
	httpStatus int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.data, m.httpStatus
}
