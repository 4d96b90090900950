package handlers

import (
	"net/http"

	"helpkart/internal/common"
	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

// RequestHandlers handles the caller's posted needs
type RequestHandlers struct {
	requestService services.RequestService
}

func NewRequestHandlers(requestService services.RequestService) *RequestHandlers {
	return &RequestHandlers{requestService: requestService}
}

// FulfillRequest names the center that covered a request
type FulfillRequest struct {
	FulfilledBy string `json:"fulfilled_by"`
}

// ListMyRequests returns the caller's requests split into open and fulfilled
func (h *RequestHandlers) ListMyRequests(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	mine, err := h.requestService.ListMyRequests(c.Request().Context(), centerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mine)
}

func (h *RequestHandlers) PostRequest(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var input services.PostRequestInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	request, err := h.requestService.PostRequest(c.Request().Context(), centerID, &input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, request)
}

func (h *RequestHandlers) DeleteRequest(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.requestService.DeleteRequest(c.Request().Context(), centerID, requestID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RequestHandlers) MarkFulfilled(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	requestID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req FulfillRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}
	fulfilledBy, err := common.ValidateUUID(req.FulfilledBy, "fulfilled_by")
	if err != nil {
		return err
	}

	request, err := h.requestService.MarkFulfilled(c.Request().Context(), centerID, requestID, fulfilledBy)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, request)
}
