package entities

// SearchResult is one page of a ranked search.
// len(Items) == min(Limit, max(0, Total-Skip)).
type SearchResult struct {
	Total     int         `json:"total"`
	Limit     int         `json:"limit"`
	Skip      int         `json:"skip"`
	BadSearch bool        `json:"badSearch"`
	Items     []BasicDrug `json:"items"`
}

// ClassFrequency counts how many drugs carry a pharmacological class.
type ClassFrequency struct {
	ClassName string `json:"className"`
	ClassType string `json:"classType"`
	Count     int    `json:"count"`
}

// SearchParams are the validated inputs of a search request.
type SearchParams struct {
	Query string
	Limit int
	Skip  int
}

// WikiSummary is the short description returned by the encyclopedia lookup.
type WikiSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	URL     string `json:"url"`
}
