package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/invoicer/backend/internal/application/billing"
)

// PaymentHandler serves /api/payments
type PaymentHandler struct {
	BaseHandler
	paymentService PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(base BaseHandler, paymentService PaymentService) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, paymentService: paymentService}
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Description  Retrieve a paginated list of payments with optional invoice, method and date filters
// @Tags         payments
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Param        search query string false "Search term"
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Param        method query string false "Payment method"
// @Param        from query string false "Paid on or after (YYYY-MM-DD)" format(date)
// @Param        to query string false "Paid on or before (YYYY-MM-DD)" format(date)
// @Success      200 {object} dto.Response{data=[]billingapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter billingapp.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	payments, total, err := h.paymentService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, "Payments retrieved", payments, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createPayment
// @Summary      Record a payment
// @Description  Record a payment and return it with the refreshed invoice
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Replays with the same key are rejected"
// @Param        request body billingapp.CreatePaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=billingapp.PaymentResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req billingapp.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Payment recorded", result)
}

// GetByID godoc
// @ID           getPayment
// @Summary      Get a payment
// @Description  Retrieve a payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=billingapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment retrieved", payment)
}

// ListByInvoice godoc
// @ID           listPaymentsByInvoice
// @Summary      List payments of an invoice
// @Description  Retrieve the payments recorded against an invoice
// @Tags         payments
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]billingapp.PaymentResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments/invoice/{id} [get]
func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	payments, err := h.paymentService.ListByInvoice(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payments retrieved", payments)
}

// Update godoc
// @ID           updatePayment
// @Summary      Update a payment
// @Description  Update a payment and recalculate the paid total of its invoice
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body billingapp.UpdatePaymentRequest true "Payment fields"
// @Success      200 {object} dto.Response{data=billingapp.PaymentResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment updated", result)
}

// Delete godoc
// @ID           deletePayment
// @Summary      Delete a payment
// @Description  Delete a payment. The response carries the recalculated invoice
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response{data=object}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.paymentService.Delete(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment deleted", gin.H{"invoice": invoice})
}
