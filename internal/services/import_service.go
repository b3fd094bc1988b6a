package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"inventario-backend/internal/models"
	"inventario-backend/internal/repository"
)

// Import column headers, matching the spreadsheet template handed to users.
const (
	colSKU      = "sku"
	colCode     = "codigo"
	colName     = "nombre"
	colCategory = "tipo"
	colPrice    = "precio"
	colStock    = "stock"
	colMinimum  = "minimo"
	colPhotoURL = "fotourl"
)

// categorySynonyms maps the spellings users actually type into the "tipo"
// column. Every value must be a canonical ProductCategory; the constructor
// panics otherwise so a bad entry fails at startup, not mid-import.
var categorySynonyms = map[string]models.ProductCategory{
	"producto":  models.CategoryProducto,
	"productos": models.CategoryProducto,
	"prod":      models.CategoryProducto,
	"product":   models.CategoryProducto,
	"flete":     models.CategoryFlete,
	"fletes":    models.CategoryFlete,
	"flet":      models.CategoryFlete,
	"envio":     models.CategoryFlete,
	"envío":     models.CategoryFlete,
}

// ImportRowError pins a failure to its spreadsheet row. Row numbers are
// 1-based and include the header row, so the first data row is 2.
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult summarizes a bulk import. Rows are independent transactions:
// a failed row never rolls back its neighbours.
type ImportResult struct {
	Success            bool                      `json:"success"`
	TotalRows          int                       `json:"totalRows"`
	SuccessCount       int                       `json:"successCount"`
	FailedCount        int                       `json:"failedCount"`
	ProductsCreated    int                       `json:"productsCreated"`
	ProductsUpdated    int                       `json:"productsUpdated"`
	InventoriesCreated int                       `json:"inventoriesCreated"`
	InventoriesUpdated int                       `json:"inventoriesUpdated"`
	Errors             []ImportRowError          `json:"errors,omitempty"`
	Alerts             []models.TransitionResult `json:"alerts,omitempty"`
}

// importRow is one parsed data row; RowNum is its spreadsheet position.
type importRow struct {
	RowNum   int
	SKU      string
	Code     string
	Name     string
	Category models.ProductCategory
	Price    float64
	Stock    int
	Minimum  int
	PhotoURL string
}

// ImportService ingests the catalog spreadsheet: one transaction per row,
// product upserted by SKU, inventory reconciled to the row's category.
type ImportService struct {
	repo     repository.StockRepositoryInterface
	critical *StockCriticalService
	logger   *logrus.Entry
}

func NewImportService(repo repository.StockRepositoryInterface, critical *StockCriticalService, logger *logrus.Logger) *ImportService {
	for k, v := range categorySynonyms {
		if v != models.CategoryProducto && v != models.CategoryFlete {
			panic(fmt.Sprintf("import: synonym %q maps to unknown category %q", k, v))
		}
	}
	return &ImportService{
		repo:     repo,
		critical: critical,
		logger:   logger.WithField("component", "import"),
	}
}

// NormalizeCategory resolves the free-form "tipo" cell to a canonical
// category. Resolution tiers: exact synonym match on the lowercased value,
// then a substring heuristic ("flet" anywhere wins over "prod"). An empty
// cell defaults to producto; anything unresolvable is an error.
func NormalizeCategory(raw string) (models.ProductCategory, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return models.CategoryProducto, nil
	}
	if cat, ok := categorySynonyms[value]; ok {
		return cat, nil
	}
	if strings.Contains(value, "flet") {
		return models.CategoryFlete, nil
	}
	if strings.Contains(value, "prod") {
		return models.CategoryProducto, nil
	}
	return "", fmt.Errorf("tipo %q no reconocido", raw)
}

// ImportFile parses a CSV or XLSX upload and applies every row.
func (s *ImportService) ImportFile(ctx context.Context, file io.Reader, filename string) (*ImportResult, error) {
	rows, err := parseFile(file, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("el archivo no contiene filas de datos")
	}
	return s.processRows(ctx, rows), nil
}

func parseFile(file io.Reader, filename string) ([]map[string]string, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return parseCSV(file)
	case strings.HasSuffix(lower, ".xlsx"):
		return parseXLSX(file)
	}
	return nil, fmt.Errorf("solo se admiten archivos CSV y XLSX")
}

func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}

	var rows []map[string]string
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1)
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2)
		rows = append(rows, row)
	}

	return rows, nil
}

// processRows validates and applies each parsed row. Validation failures and
// transaction failures are both row-scoped.
func (s *ImportService) processRows(ctx context.Context, raw []map[string]string) *ImportResult {
	result := &ImportResult{
		TotalRows: len(raw),
		Errors:    make([]ImportRowError, 0),
	}

	for _, cells := range raw {
		rowNum, _ := strconv.Atoi(cells["_row"])

		row, rowErr := parseImportRow(rowNum, cells)
		if rowErr != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, *rowErr)
			continue
		}

		if err := s.applyRow(ctx, row, result); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, ImportRowError{
				Row:     row.RowNum,
				Code:    "ROW_FAILED",
				Message: err.Error(),
			})
			continue
		}
		result.SuccessCount++
	}

	result.Success = result.FailedCount == 0
	s.logger.WithFields(logrus.Fields{
		"totalRows": result.TotalRows,
		"succeeded": result.SuccessCount,
		"failed":    result.FailedCount,
	}).Info("Catalog import finished")
	return result
}

func parseImportRow(rowNum int, cells map[string]string) (*importRow, *ImportRowError) {
	sku := cells[colSKU]
	if sku == "" {
		return nil, &ImportRowError{Row: rowNum, Column: colSKU, Code: "VALIDATION_ERROR", Message: "sku es obligatorio"}
	}
	name := cells[colName]
	if name == "" {
		return nil, &ImportRowError{Row: rowNum, Column: colName, Code: "VALIDATION_ERROR", Message: "nombre es obligatorio"}
	}

	category, err := NormalizeCategory(cells[colCategory])
	if err != nil {
		return nil, &ImportRowError{Row: rowNum, Column: colCategory, Code: "VALIDATION_ERROR", Message: err.Error()}
	}

	row := &importRow{
		RowNum:   rowNum,
		SKU:      sku,
		Code:     cells[colCode],
		Name:     name,
		Category: category,
		PhotoURL: cells[colPhotoURL],
	}

	if v := cells[colPrice]; v != "" {
		price, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil || price < 0 {
			return nil, &ImportRowError{Row: rowNum, Column: colPrice, Code: "VALIDATION_ERROR", Message: fmt.Sprintf("precio %q no es válido", v)}
		}
		row.Price = price
	}
	if v := cells[colStock]; v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return nil, &ImportRowError{Row: rowNum, Column: colStock, Code: "VALIDATION_ERROR", Message: fmt.Sprintf("stock %q no es válido", v)}
		}
		row.Stock = stock
	}
	if v := cells[colMinimum]; v != "" {
		minimum, err := strconv.Atoi(v)
		if err != nil || minimum < 0 {
			return nil, &ImportRowError{Row: rowNum, Column: colMinimum, Code: "VALIDATION_ERROR", Message: fmt.Sprintf("minimo %q no es válido", v)}
		}
		row.Minimum = minimum
	}

	if row.Category.IsStockTracked() && row.Code == "" {
		return nil, &ImportRowError{Row: rowNum, Column: colCode, Code: "VALIDATION_ERROR", Message: "codigo es obligatorio para productos con stock"}
	}

	return row, nil
}

// rowDelta collects what one row's transaction would contribute to the
// report. It is merged into the result only after the transaction commits,
// so a rolled-back row never inflates the counters.
type rowDelta struct {
	productsCreated    int
	productsUpdated    int
	inventoriesCreated int
	inventoriesUpdated int
	alerts             []models.TransitionResult
}

// applyRow runs one row in its own transaction: upsert the product by SKU,
// then reconcile inventory to the category. A row that turns a product into
// flete removes its inventory record; a stock-tracked row upserts it and
// re-evaluates criticality inside the same transaction.
func (s *ImportService) applyRow(ctx context.Context, row *importRow, result *ImportResult) error {
	var delta rowDelta
	err := s.repo.WithTransaction(ctx, func(tx repository.StockRepositoryInterface) error {
		product, err := tx.GetProductBySKU(ctx, row.SKU)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			product = &models.Product{
				SKU:      row.SKU,
				Name:     row.Name,
				Category: row.Category,
				Price:    row.Price,
			}
			if row.PhotoURL != "" {
				product.PhotoURL = &row.PhotoURL
			}
			if err := tx.CreateProduct(ctx, product); err != nil {
				return err
			}
			delta.productsCreated++
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{
				"name":     row.Name,
				"category": row.Category,
				"price":    row.Price,
			}
			if row.PhotoURL != "" {
				updates["photo_url"] = row.PhotoURL
			}
			if err := tx.UpdateProduct(ctx, product.ID, updates); err != nil {
				return err
			}
			delta.productsUpdated++
		}

		inventory, err := tx.GetInventoryByProductID(ctx, product.ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		found := err == nil

		if !row.Category.IsStockTracked() {
			// Freight rows carry no stock; drop any leftover inventory so
			// the evaluator stops seeing it.
			if found {
				return tx.DeleteInventory(ctx, inventory.ID)
			}
			return nil
		}

		var inventoryID uuid.UUID
		if found {
			updates := map[string]interface{}{
				"code":              row.Code,
				"stock":             row.Stock,
				"minimum_threshold": row.Minimum,
			}
			if err := tx.UpdateInventory(ctx, inventory.ID, updates); err != nil {
				return err
			}
			inventoryID = inventory.ID
			delta.inventoriesUpdated++
		} else {
			record := &models.InventoryRecord{
				ProductID:        product.ID,
				Code:             row.Code,
				Stock:            row.Stock,
				MinimumThreshold: row.Minimum,
			}
			if err := tx.CreateInventory(ctx, record); err != nil {
				return err
			}
			inventoryID = record.ID
			delta.inventoriesCreated++
		}

		transition, err := s.critical.Evaluate(ctx, tx, inventoryID)
		if err != nil {
			return err
		}
		if transition.Action != models.ActionNoop {
			delta.alerts = append(delta.alerts, *transition)
		}
		return nil
	})
	if err != nil {
		return err
	}

	result.ProductsCreated += delta.productsCreated
	result.ProductsUpdated += delta.productsUpdated
	result.InventoriesCreated += delta.inventoriesCreated
	result.InventoriesUpdated += delta.inventoriesUpdated
	result.Alerts = append(result.Alerts, delta.alerts...)
	return nil
}
