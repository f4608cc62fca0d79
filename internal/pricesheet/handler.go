package pricesheet

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --------------------------------------------------
// Current sheet rows
// --------------------------------------------------
func (h *Handler) Rows(c *gin.Context) {
	rows, err := h.service.Rows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// --------------------------------------------------
// Download the sheet as xlsx
// --------------------------------------------------
func (h *Handler) Export(c *gin.Context) {
	data, err := h.service.ExportWorkbook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="price-sheet.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// --------------------------------------------------
// Publish the sheet to object storage
// --------------------------------------------------
func (h *Handler) Publish(c *gin.Context) {
	url, err := h.service.PublishWorkbook(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// --------------------------------------------------
// Upload an edited workbook
// --------------------------------------------------
func (h *Handler) Import(c *gin.Context) {
	file, _, err := c.Request.FormFile("sheet_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sheet_file is required"})
		return
	}
	defer file.Close()

	count, err := h.service.ImportWorkbook(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported_edits": count,
		"message":        "Manual prices pulled into the store.",
	})
}
