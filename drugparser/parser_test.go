package drugparser

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

const productsHeader = "PRODUCTID,PRODUCTNDC,PRODUCTTYPENAME,PROPRIETARYNAME,PROPRIETARYNAMESUFFIX,NONPROPRIETARYNAME,DOSAGEFORMNAME,ROUTENAME,STARTMARKETINGDATE,ENDMARKETINGDATE,MARKETINGCATEGORYNAME,APPLICATIONNUMBER,LABELERNAME,SUBSTANCENAME,ACTIVE_NUMERATOR_STRENGTH,ACTIVE_INGRED_UNIT,PHARM_CLASSES,DEASCHEDULE"

func writeTestFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func testFiles() map[string]string {
	return map[string]string{
		finishedProductsFile: strings.Join([]string{
			productsHeader,
			`0002-4112_abc-1,0002-4112,HUMAN PRESCRIPTION DRUG,Zyprexa,,Olanzapine,"TABLET, FILM COATED",ORAL,19961001,,NDA,NDA020592,Eli Lilly and Company,OLANZAPINE,2.5,mg/1,"Atypical Antipsychotic [EPC]",`,
			`0002-4115_abc-1,0002-4115,HUMAN PRESCRIPTION DRUG,Zyprexa,,Olanzapine,TABLET,ORAL,19961001,20301231,NDA,NDA020592,Eli Lilly and Company,OLANZAPINE,5,mg/1,"Atypical Antipsychotic [EPC]",`,
			`0003-0001_def-2,0003-0001,HUMAN OTC DRUG,Advil,Liqui-Gels,"Ibuprofen, Pseudoephedrine",CAPSULE,ORAL;SUBLINGUAL,20100101,,NDA,,Pfizer,IBUPROFEN; PSEUDOEPHEDRINE,200; 30,mg/1; mg/1,"Anti-Inflammatory Agents, Non-Steroidal [CS],Nonsteroidal Anti-inflammatory Drug [EPC]",CII`,
			`broken-row,0003-0002`,
			`0003-0003_ghi-3,0003-0003,HUMAN OTC DRUG,Bad Date,,X,TABLET,ORAL,notadate,,NDA,,Pfizer,X,1,mg/1,,`,
		}, "\n"),
		unfinishedProductsFile: strings.Join([]string{
			"PRODUCTID,PRODUCTNDC,PRODUCTTYPENAME,NONPROPRIETARYNAME,DOSAGEFORMNAME,STARTMARKETINGDATE,ENDMARKETINGDATE,MARKETINGCATEGORYNAME,LABELERNAME,SUBSTANCENAME,ACTIVE_NUMERATOR_STRENGTH,ACTIVE_INGRED_UNIT,DEASCHEDULE",
			`9999-0001_xyz-9,9999-0001,BULK INGREDIENT,Olanzapine,POWDER,20150101,,BULK INGREDIENT,Acme Labs,OLANZAPINE,1,g/g,`,
		}, "\n"),
		finishedPackagesFile: strings.Join([]string{
			"PRODUCTID,PRODUCTNDC,NDCPACKAGECODE,PACKAGEDESCRIPTION",
			`0002-4112_abc-1,0002-4112,0002-4112-30,30 TABLET in 1 BOTTLE > 1 BOX`,
			`0002-4115_abc-1,0002-4115,0002-4115-30,60 TABLET in 1 BOTTLE`,
			`missing_product,0000-0000,0000-0000-00,1 BOX`,
		}, "\n"),
	}
}

func TestParseAllDrugs(t *testing.T) {
	dir := writeTestFiles(t, testFiles())

	corpus, err := NewDrugsParser(dir, "").ParseAllDrugs()
	if err != nil {
		t.Fatalf("ParseAllDrugs failed: %v", err)
	}

	// abc-1 merged, def-2, xyz-9; broken and bad-date rows skipped
	if len(corpus.Drugs) != 3 {
		t.Fatalf("Expected 3 drugs, got %d", len(corpus.Drugs))
	}

	zyprexa := corpus.Drugs[0]
	if zyprexa.DrugID != "abc-1" {
		t.Errorf("Expected first drug abc-1, got %s", zyprexa.DrugID)
	}
	if zyprexa.ProprietaryName == nil || *zyprexa.ProprietaryName != "Zyprexa" {
		t.Errorf("Expected proprietary name Zyprexa, got %v", zyprexa.ProprietaryName)
	}
	if zyprexa.ProprietaryNameSuffix != nil {
		t.Errorf("Expected empty suffix to be absent, got %q", *zyprexa.ProprietaryNameSuffix)
	}
	if len(zyprexa.Products) != 2 {
		t.Fatalf("Expected 2 merged products, got %d", len(zyprexa.Products))
	}
	if zyprexa.Products[0].ProductNDC != "0002-4112" || zyprexa.Products[1].ProductNDC != "0002-4115" {
		t.Errorf("Expected products in source order, got %s then %s",
			zyprexa.Products[0].ProductNDC, zyprexa.Products[1].ProductNDC)
	}
	if len(zyprexa.Products[0].Packages) != 1 {
		t.Fatalf("Expected 1 package on first product, got %d", len(zyprexa.Products[0].Packages))
	}
	desc := zyprexa.Products[0].Packages[0].Description
	if len(desc) != 2 || desc[0] != "30 TABLET in 1 BOTTLE" || desc[1] != "1 BOX" {
		t.Errorf("Unexpected package description: %v", desc)
	}
	if zyprexa.Products[0].EndMarketingDate != nil {
		t.Error("Expected no end marketing date on first product")
	}
	if zyprexa.Products[1].EndMarketingDate == nil || zyprexa.Products[1].EndMarketingDate.Year() != 2030 {
		t.Errorf("Expected end marketing date in 2030, got %v", zyprexa.Products[1].EndMarketingDate)
	}
	if zyprexa.DosageForms[0] != "TABLET" || zyprexa.DosageForms[1] != "FILM COATED" {
		t.Errorf("Unexpected dosage forms: %v", zyprexa.DosageForms)
	}

	advil := corpus.Drugs[1]
	if len(advil.NonProprietaryNames) != 2 || advil.NonProprietaryNames[1] != "Pseudoephedrine" {
		t.Errorf("Unexpected non-proprietary names: %v", advil.NonProprietaryNames)
	}
	if len(advil.Routes) != 2 || advil.Routes[1] != "SUBLINGUAL" {
		t.Errorf("Unexpected routes: %v", advil.Routes)
	}
	if advil.ApplicationNumber != nil {
		t.Error("Expected empty application number to be absent")
	}
	if advil.DEASchedule == nil || *advil.DEASchedule != "CII" {
		t.Errorf("Expected DEA schedule CII, got %v", advil.DEASchedule)
	}
	if len(advil.PharmClasses) != 2 || advil.PharmClasses[0].ClassName != "Anti-Inflammatory Agents, Non-Steroidal" {
		t.Errorf("Unexpected pharm classes: %+v", advil.PharmClasses)
	}
	subs := advil.Products[0].Substances
	if len(subs) != 2 || subs[1].Name != "PSEUDOEPHEDRINE" || subs[1].Strength != "30" || subs[1].Unit != "mg/1" {
		t.Errorf("Unexpected substances: %+v", subs)
	}

	bulk := corpus.Drugs[2]
	if bulk.Finished {
		t.Error("Expected unfinished drug")
	}
	if bulk.ProprietaryName != nil || len(bulk.Routes) != 0 || len(bulk.PharmClasses) != 0 {
		t.Errorf("Unfinished drug should have no name, routes or classes: %+v", bulk.BasicDrug)
	}
	if bulk.LabelerName != "Acme Labs" {
		t.Errorf("Expected labeler Acme Labs, got %s", bulk.LabelerName)
	}

	if len(corpus.OrphanPackages) != 1 || corpus.OrphanPackages[0] != "missing_product" {
		t.Errorf("Expected one orphan package, got %v", corpus.OrphanPackages)
	}

	if len(corpus.ClassFrequency) != 3 {
		t.Fatalf("Expected 3 classes, got %d", len(corpus.ClassFrequency))
	}
	// Every class is carried by one drug, so ties sort by name
	if corpus.ClassFrequency[0].ClassName != "Anti-Inflammatory Agents, Non-Steroidal" {
		t.Errorf("Unexpected class order: %+v", corpus.ClassFrequency)
	}
}

func TestParseAllDrugs_MissingFiles(t *testing.T) {
	t.Run("products file is required", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := NewDrugsParser(dir, "").ParseAllDrugs(); err == nil {
			t.Error("Expected error when the products file is missing")
		}
	})

	t.Run("other files are optional", func(t *testing.T) {
		files := testFiles()
		dir := writeTestFiles(t, map[string]string{finishedProductsFile: files[finishedProductsFile]})
		corpus, err := NewDrugsParser(dir, "").ParseAllDrugs()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(corpus.Drugs) != 2 {
			t.Errorf("Expected 2 drugs, got %d", len(corpus.Drugs))
		}
	})
}

func TestParseAllDrugs_ISO88591(t *testing.T) {
	content := productsHeader + "\n" +
		`0001-0001_enc-1,0001-0001,HUMAN OTC DRUG,Crème Apaisante,,Hydrocortisone,CREAM,TOPICAL,20200101,,OTC,,Laboratoire Hélios,HYDROCORTISONE,1,g/100g,,`
	encoded, err := charmap.ISO8859_1.NewEncoder().String(content)
	if err != nil {
		t.Fatalf("Failed to encode test content: %v", err)
	}
	dir := writeTestFiles(t, map[string]string{finishedProductsFile: encoded})

	corpus, err := NewDrugsParser(dir, "").ParseAllDrugs()
	if err != nil {
		t.Fatalf("ParseAllDrugs failed: %v", err)
	}
	if len(corpus.Drugs) != 1 {
		t.Fatalf("Expected 1 drug, got %d", len(corpus.Drugs))
	}
	if got := *corpus.Drugs[0].ProprietaryName; got != "Crème Apaisante" {
		t.Errorf("Expected decoded name, got %q", got)
	}
	if got := corpus.Drugs[0].LabelerName; got != "Laboratoire Hélios" {
		t.Errorf("Expected decoded labeler, got %q", got)
	}
}

func TestParseAllDrugs_Download(t *testing.T) {
	files := testFiles()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[strings.TrimPrefix(r.URL.Path, "/ndc/")]
		if !ok {
			// The optional unfinished packages file is served empty
			content = "PRODUCTID,PRODUCTNDC,NDCPACKAGECODE,PACKAGEDESCRIPTION\n"
		}
		_, _ = w.Write([]byte(content))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "data")
	corpus, err := NewDrugsParser(dir, server.URL+"/ndc/").ParseAllDrugs()
	if err != nil {
		t.Fatalf("ParseAllDrugs failed: %v", err)
	}
	if len(corpus.Drugs) != 3 {
		t.Errorf("Expected 3 drugs, got %d", len(corpus.Drugs))
	}
	for _, name := range sourceFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be downloaded: %v", name, err)
		}
	}
}

func TestParseAllDrugs_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := NewDrugsParser(t.TempDir(), server.URL).ParseAllDrugs(); err == nil {
		t.Error("Expected error when downloads fail")
	}
}
