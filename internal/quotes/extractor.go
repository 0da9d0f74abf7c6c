package quotes

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/cycle3/supplysync-backend/pkg/errors"
)

// CSVExtractor parses structured quote documents of the form
// sku,description,quantity,unit_price (header row optional). Scanned
// documents are routed to an external extraction service instead.
type CSVExtractor struct{}

var csvMediaTypes = map[string]struct{}{
	"text/csv":   {},
	"text/plain": {},
}

func (CSVExtractor) Extract(ctx context.Context, doc Document) ([]ExtractedLine, error) {
	mediaType := strings.ToLower(strings.TrimSpace(doc.MediaType))
	if _, ok := csvMediaTypes[mediaType]; !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("no extractor registered for media type %q", doc.MediaType))
	}

	reader := csv.NewReader(bytes.NewReader(doc.Content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var lines []ExtractedLine
	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("row %d: malformed csv: %v", rowNum, err))
		}
		if rowNum == 1 && isHeaderRow(record) {
			continue
		}
		if len(record) < 4 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("row %d: expected 4 columns, got %d", rowNum, len(record)))
		}

		quantity, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("row %d: quantity %q is not an integer", rowNum, record[2]))
		}
		unitPrice, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("row %d: unit price %q is not a decimal", rowNum, record[3]))
		}

		lines = append(lines, ExtractedLine{
			SKU:         strings.TrimSpace(record[0]),
			Description: strings.TrimSpace(record[1]),
			Quantity:    quantity,
			UnitPrice:   unitPrice,
		})
	}

	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document contained no quote lines")
	}
	return lines, nil
}

func isHeaderRow(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "sku")
}
