package entities

import "time"

// Drug is one logical FDA drug. Rows sharing the same drug id are merged into a
// single Drug whose Products hold every formulation in source order.
type Drug struct {
	BasicDrug
	Products []Product `json:"products"`
}

// BasicDrug is the searchable part of a Drug, returned by search without products.
type BasicDrug struct {
	Finished              bool         `json:"drugFinished"`
	DrugID                string       `json:"drugId"`
	ProductType           string       `json:"productTypeName"`
	ProprietaryName       *string      `json:"proprietaryName,omitempty"`
	ProprietaryNameSuffix *string      `json:"proprietaryNameSuffix,omitempty"`
	NonProprietaryNames   []string     `json:"nonProprietaryNames"`
	DosageForms           []string     `json:"dosageForms"`
	Routes                []string     `json:"routes"`
	ApplicationNumber     *string      `json:"applicationNumber,omitempty"`
	LabelerName           string       `json:"labelerName"`
	PharmClasses          []PharmClass `json:"pharmClasses"`
	DEASchedule           *string      `json:"deaSchedule,omitempty"`
}

type PharmClass struct {
	ClassName string `json:"className"`
	ClassType string `json:"classType"`
}

// Product is a single formulation (one NDC product code) of a drug.
type Product struct {
	ProductNDC         string      `json:"productNdc"`
	Substances         []Substance `json:"substances"`
	Packages           []Package   `json:"packages"`
	StartMarketingDate time.Time   `json:"startMarketingDate"`
	EndMarketingDate   *time.Time  `json:"endMarketingDate,omitempty"`
	MarketingCategory  string      `json:"marketingCategoryName"`
}

type Substance struct {
	Name     string `json:"substanceName"`
	Strength string `json:"activeNumeratorStrength"`
	Unit     string `json:"activeIngredUnit"`
}

type Package struct {
	NDCPackageCode string   `json:"ndcPackageCode"`
	Description    []string `json:"packageDescription"`
}
