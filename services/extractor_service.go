package services

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/askpdf/backend/models"
)

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY"))
	if err != nil {
		fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
	}
}

// TextExtractor is the external PDF-extraction capability: given a stored
// file, produce one text string per page.
type TextExtractor interface {
	ExtractPages(path string) ([]string, error)
}

// UniPDFExtractor extracts page text with UniPDF.
type UniPDFExtractor struct{}

// NewUniPDFExtractor creates the default PDF text extractor.
func NewUniPDFExtractor() *UniPDFExtractor {
	return &UniPDFExtractor{}
}

// ExtractPages implements TextExtractor. Any reader or extractor failure is
// reported as an extraction error.
func (UniPDFExtractor) ExtractPages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", models.ErrExtraction, path, err)
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pdf: %v", models.ErrExtraction, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("%w: counting pages: %v", models.ErrExtraction, err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("%w: loading page %d: %v", models.ErrExtraction, i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("%w: preparing extractor for page %d: %v", models.ErrExtraction, i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("%w: extracting page %d: %v", models.ErrExtraction, i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
