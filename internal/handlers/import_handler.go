package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"inventario-backend/internal/models"
	"inventario-backend/internal/services"
)

type ImportHandler struct {
	importer *services.ImportService
}

func NewImportHandler(importer *services.ImportService) *ImportHandler {
	return &ImportHandler{importer: importer}
}

// ImportTemplateColumn describes one column of the catalog template.
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// catalogTemplateColumns is the import template in column order.
func catalogTemplateColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "SKU único del producto", Required: true, Type: "string", Example: "CEM-50"},
		{Name: "codigo", Description: "Código de inventario (obligatorio para productos)", Required: false, Type: "string", Example: "ALM-010"},
		{Name: "nombre", Description: "Nombre del producto", Required: true, Type: "string", Example: "Cemento Gris 50kg"},
		{Name: "tipo", Description: "producto o flete", Required: false, Type: "string", Example: "producto"},
		{Name: "precio", Description: "Precio de venta", Required: false, Type: "number", Example: "185.50"},
		{Name: "stock", Description: "Stock actual", Required: false, Type: "number", Example: "120"},
		{Name: "minimo", Description: "Umbral de stock crítico", Required: false, Type: "number", Example: "10"},
		{Name: "fotoUrl", Description: "URL de la foto", Required: false, Type: "string", Example: "https://cdn.example.com/cem.jpg"},
	}
}

// ImportCatalog ingests the catalog spreadsheet
// POST /api/v1/import/catalogo
func (h *ImportHandler) ImportCatalog(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "FILE_REQUIRED", Message: "Please upload a CSV or Excel file"},
		})
		return
	}
	defer file.Close()

	result, err := h.importer.ImportFile(c.Request.Context(), file, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   models.Error{Code: "PARSE_ERROR", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCatalogTemplate serves the import template as CSV or XLSX
// GET /api/v1/import/catalogo/template?format=csv|xlsx
func (h *ImportHandler) GetCatalogTemplate(c *gin.Context) {
	columns := catalogTemplateColumns()

	if c.DefaultQuery("format", "xlsx") == "csv" {
		h.generateCSVTemplate(c, columns)
		return
	}
	h.generateXLSXTemplate(c, columns)
}

func (h *ImportHandler) generateCSVTemplate(c *gin.Context, columns []ImportTemplateColumn) {
	var csvContent string
	for i, col := range columns {
		if i > 0 {
			csvContent += ","
		}
		csvContent += col.Name
	}
	csvContent += "\n"
	for i, col := range columns {
		if i > 0 {
			csvContent += ","
		}
		csvContent += col.Example
	}
	csvContent += "\n"

	c.Header("Content-Disposition", "attachment; filename=catalogo_template.csv")
	c.Data(http.StatusOK, "text/csv", []byte(csvContent))
}

func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, columns []ImportTemplateColumn) {
	f := excelize.NewFile()
	sheetName := "Catalogo"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col.Name)
		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)

		exampleCell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, exampleCell, col.Example)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondInternalError(c, fmt.Sprintf("Failed to generate template: %v", err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=catalogo_template.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
