package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/giygas/fdadrugs-api/data"
	"github.com/giygas/fdadrugs-api/drugparser/entities"
	"github.com/giygas/fdadrugs-api/interfaces"
	"github.com/giygas/fdadrugs-api/validation"
)

// newBenchHandler builds a handler over a synthetic corpus of n drugs
func newBenchHandler(b *testing.B, n int) *HTTPHandlerImpl {
	b.Helper()
	factory := NewTestDataFactory()

	drugs := make([]entities.Drug, n)
	for i := range n {
		drugs[i] = factory.CreateDrug(
			fmt.Sprintf("drug-%d", i),
			fmt.Sprintf("Brand %d", i),
			[]string{fmt.Sprintf("Generic Compound %d", i%97)},
			fmt.Sprintf("Class %d", i%13),
		)
	}

	store := data.NewDataContainer()
	if err := store.Publish(&interfaces.Corpus{Drugs: drugs}, &interfaces.DataQualityReport{}); err != nil {
		b.Fatalf("Failed to publish corpus: %v", err)
	}

	return NewHTTPHandler(
		factory.CreateSearcher(b, store),
		store,
		validation.NewDataValidator(),
		NewMockWikiBuilder().Build(),
		&MockHealthChecker{status: "healthy", httpStatus: http.StatusOK},
	).(*HTTPHandlerImpl)
}

// BenchmarkSearchPrimary benchmarks a query answered by the primary ranker
func BenchmarkSearchPrimary(b *testing.B) {
	handler := newBenchHandler(b, 5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/drug/search?q=brand%2042", nil)
		handler.SearchDrugs(rr, req)
	}
}

// BenchmarkSearchFallback benchmarks a misspelled query that falls through
func BenchmarkSearchFallback(b *testing.B) {
	handler := newBenchHandler(b, 5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/drug/search?q=gneric%20cmpuond", nil)
		handler.SearchDrugs(rr, req)
	}
}

// BenchmarkFindDrugByID benchmarks the detail lookup
func BenchmarkFindDrugByID(b *testing.B) {
	handler := newBenchHandler(b, 5000)
	helper := &HTTPTestHelper{}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		helper.ExecuteRequest(handler.FindDrugByID, "GET", "/api/drug/drug-42", map[string]string{"id": "drug-42"})
	}
}
