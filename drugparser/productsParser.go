package drugparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/giygas/fdadrugs-api/drugparser/entities"
)

const (
	finishedColumns   = 18
	unfinishedColumns = 13
	packageColumns    = 4
	dateLayout        = "20060102"
)

// productRow is one parsed product line together with the product id used
// to attach packages to it
type productRow struct {
	productID string
	drug      *entities.Drug
}

// parseFinishedRow maps a Drugs_product.csv record:
// 0 PRODUCTID, 1 PRODUCTNDC, 2 PRODUCTTYPENAME, 3 PROPRIETARYNAME,
// 4 PROPRIETARYNAMESUFFIX, 5 NONPROPRIETARYNAME, 6 DOSAGEFORMNAME, 7 ROUTENAME,
// 8 STARTMARKETINGDATE, 9 ENDMARKETINGDATE, 10 MARKETINGCATEGORYNAME,
// 11 APPLICATIONNUMBER, 12 LABELERNAME, 13 SUBSTANCENAME,
// 14 ACTIVE_NUMERATOR_STRENGTH, 15 ACTIVE_INGRED_UNIT, 16 PHARM_CLASSES, 17 DEASCHEDULE
func parseFinishedRow(row []string) (*productRow, error) {
	if len(row) < finishedColumns {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", errMissingColumns, finishedColumns, len(row))
	}

	drugID, err := drugIDFromProductID(row[0])
	if err != nil {
		return nil, err
	}

	product, err := parseProduct(row[1], row[8], row[9], row[10], row[13], row[14], row[15])
	if err != nil {
		return nil, err
	}

	return &productRow{
		productID: strings.TrimSpace(row[0]),
		drug: &entities.Drug{
			BasicDrug: entities.BasicDrug{
				Finished:              true,
				DrugID:                drugID,
				ProductType:           strings.TrimSpace(row[2]),
				ProprietaryName:       optional(row[3]),
				ProprietaryNameSuffix: optional(row[4]),
				NonProprietaryNames:   splitList(row[5], ","),
				DosageForms:           splitList(row[6], ","),
				Routes:                splitList(row[7], ";"),
				ApplicationNumber:     optional(row[11]),
				LabelerName:           strings.TrimSpace(row[12]),
				PharmClasses:          parsePharmClasses(row[16]),
				DEASchedule:           optional(row[17]),
			},
			Products: []entities.Product{*product},
		},
	}, nil
}

// parseUnfinishedRow maps a Drugs_unfinished_products.csv record:
// 0 PRODUCTID, 1 PRODUCTNDC, 2 PRODUCTTYPENAME, 3 NONPROPRIETARYNAME,
// 4 DOSAGEFORMNAME, 5 STARTMARKETINGDATE, 6 ENDMARKETINGDATE,
// 7 MARKETINGCATEGORYNAME, 8 LABELERNAME, 9 SUBSTANCENAME,
// 10 ACTIVE_NUMERATOR_STRENGTH, 11 ACTIVE_INGRED_UNIT, 12 DEASCHEDULE.
// Unfinished drugs have no proprietary name, routes or classes.
func parseUnfinishedRow(row []string) (*productRow, error) {
	if len(row) < unfinishedColumns {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", errMissingColumns, unfinishedColumns, len(row))
	}

	drugID, err := drugIDFromProductID(row[0])
	if err != nil {
		return nil, err
	}

	product, err := parseProduct(row[1], row[5], row[6], row[7], row[9], row[10], row[11])
	if err != nil {
		return nil, err
	}

	return &productRow{
		productID: strings.TrimSpace(row[0]),
		drug: &entities.Drug{
			BasicDrug: entities.BasicDrug{
				Finished:            false,
				DrugID:              drugID,
				ProductType:         strings.TrimSpace(row[2]),
				NonProprietaryNames: splitList(row[3], ","),
				DosageForms:         splitList(row[4], ","),
				Routes:              []string{},
				LabelerName:         strings.TrimSpace(row[8]),
				PharmClasses:        []entities.PharmClass{},
				DEASchedule:         optional(row[12]),
			},
			Products: []entities.Product{*product},
		},
	}, nil
}

func parseProduct(ndc, start, end, category, names, strengths, units string) (*entities.Product, error) {
	startDate, err := parseDate(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start marketing date %q", errBadFormat, start)
	}

	var endDate *time.Time
	if strings.TrimSpace(end) != "" {
		d, err := parseDate(end)
		if err != nil {
			return nil, fmt.Errorf("%w: end marketing date %q", errBadFormat, end)
		}
		endDate = &d
	}

	return &entities.Product{
		ProductNDC:         strings.TrimSpace(ndc),
		Substances:         parseSubstances(names, strengths, units),
		Packages:           []entities.Package{},
		StartMarketingDate: startDate,
		EndMarketingDate:   endDate,
		MarketingCategory:  strings.TrimSpace(category),
	}, nil
}

// parsePackageRow maps a package record: 0 PRODUCTID, 1 PRODUCTNDC,
// 2 NDCPACKAGECODE, 3 PACKAGEDESCRIPTION. The description is a ">" separated
// hierarchy, outermost container last.
func parsePackageRow(row []string) (productID string, pkg entities.Package, err error) {
	if len(row) < packageColumns {
		return "", pkg, fmt.Errorf("%w: expected %d columns, got %d", errMissingColumns, packageColumns, len(row))
	}
	return strings.TrimSpace(row[0]), entities.Package{
		NDCPackageCode: strings.TrimSpace(row[2]),
		Description:    splitList(row[3], ">"),
	}, nil
}

// drugIDFromProductID extracts the drug id from a PRODUCTID of the form
// <ndc>_<drug id>
func drugIDFromProductID(productID string) (string, error) {
	_, drugID, found := strings.Cut(strings.TrimSpace(productID), "_")
	if !found || drugID == "" {
		return "", fmt.Errorf("%w: product id %q has no drug id", errBadFormat, productID)
	}
	// Only the segment after the first separator identifies the drug
	drugID, _, _ = strings.Cut(drugID, "_")
	return drugID, nil
}

// parseSubstances zips the three ";" separated columns. A row missing any
// of the three has no substances.
func parseSubstances(names, strengths, units string) []entities.Substance {
	if strings.TrimSpace(names) == "" || strings.TrimSpace(strengths) == "" || strings.TrimSpace(units) == "" {
		return []entities.Substance{}
	}

	nameList := strings.Split(names, ";")
	strengthList := strings.Split(strengths, ";")
	unitList := strings.Split(units, ";")

	substances := make([]entities.Substance, 0, len(nameList))
	for i, name := range nameList {
		substances = append(substances, entities.Substance{
			Name:     strings.TrimSpace(name),
			Strength: at(strengthList, i),
			Unit:     at(unitList, i),
		})
	}
	return substances
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

func at(list []string, i int) string {
	if i < len(list) {
		return strings.TrimSpace(list[i])
	}
	return ""
}

// splitList splits s on sep, trims each item and drops empty ones
func splitList(s, sep string) []string {
	items := []string{}
	for _, item := range strings.Split(s, sep) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
