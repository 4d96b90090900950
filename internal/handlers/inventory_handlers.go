package handlers

import (
	"net/http"
	"strconv"

	"helpkart/internal/common"
	"helpkart/internal/models"
	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers handles the caller's own inventory
type InventoryHandlers struct {
	inventoryService services.InventoryService
}

// NewInventoryHandlers creates a new inventory handlers instance
func NewInventoryHandlers(inventoryService services.InventoryService) *InventoryHandlers {
	return &InventoryHandlers{inventoryService: inventoryService}
}

// ListItems handles listing the caller's items with search and filters
func (h *InventoryHandlers) ListItems(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}

	filter := &models.ItemSearchFilter{
		Query:          c.QueryParam("query"),
		Category:       optionalQuery(c, "category"),
		Classification: optionalQuery(c, "classification"),
		SortBy:         c.QueryParam("sort_by"),
		SortOrder:      c.QueryParam("sort_order"),
	}
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return err
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return err
	}
	if v := c.QueryParam("min_quantity"); v != "" {
		minQuantity, err := strconv.Atoi(v)
		if err != nil {
			return common.NewValidationError("min_quantity", "must be an integer")
		}
		filter.MinQuantity = &minQuantity
	}

	items, err := h.inventoryService.ListItems(c.Request().Context(), centerID, filter)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*models.InventoryItem{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// CreateItem handles stocking a new item
func (h *InventoryHandlers) CreateItem(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var req services.AddItemRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	item, err := h.inventoryService.AddItem(c.Request().Context(), centerID, &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// GetItem handles getting an item by ID
func (h *InventoryHandlers) GetItem(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	item, err := h.inventoryService.GetItem(c.Request().Context(), centerID, itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateItem handles a partial update of an item
func (h *InventoryHandlers) UpdateItem(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var patch models.ItemPatch
	if err := bindBody(c, &patch); err != nil {
		return err
	}

	item, err := h.inventoryService.UpdateItem(c.Request().Context(), centerID, itemID, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles removing an item
func (h *InventoryHandlers) DeleteItem(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	itemID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.inventoryService.DeleteItem(c.Request().Context(), centerID, itemID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func intQuery(c echo.Context, name string) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, common.NewValidationError(name, "must be an integer")
	}
	return n, nil
}
