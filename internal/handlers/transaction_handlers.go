package handlers

import (
	"net/http"

	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

// TransactionHandlers handles transfers between centers
type TransactionHandlers struct {
	transactionService services.TransactionService
}

func NewTransactionHandlers(transactionService services.TransactionService) *TransactionHandlers {
	return &TransactionHandlers{transactionService: transactionService}
}

// ListTransactions returns the caller's received, sent and pending transactions
func (h *TransactionHandlers) ListTransactions(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	history, err := h.transactionService.ListTransactionsFor(c.Request().Context(), centerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, history)
}

func (h *TransactionHandlers) GetTransaction(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	txnID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	view, err := h.transactionService.GetTransaction(c.Request().Context(), centerID, txnID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// RequestSurplus asks another center for part of its surplus item
func (h *TransactionHandlers) RequestSurplus(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var input services.RequestSurplusInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	txn, err := h.transactionService.RequestSurplus(c.Request().Context(), centerID, &input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, txn)
}

// OfferFulfillment offers goods against another center's request
func (h *TransactionHandlers) OfferFulfillment(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var input services.OfferInput
	if err := bindBody(c, &input); err != nil {
		return err
	}

	txn, err := h.transactionService.OfferFulfillment(c.Request().Context(), centerID, &input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandlers) Approve(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	txnID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	txn, err := h.transactionService.ApproveTransaction(c.Request().Context(), centerID, txnID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txn)
}

func (h *TransactionHandlers) Reject(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	txnID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	txn, err := h.transactionService.RejectTransaction(c.Request().Context(), centerID, txnID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, txn)
}
