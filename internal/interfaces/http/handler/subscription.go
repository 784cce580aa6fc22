package handler

import (
	"github.com/gin-gonic/gin"

	billingapp "github.com/invoicer/backend/internal/application/billing"
)

// SubscriptionHandler serves /api/subscriptions
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(base BaseHandler, subscriptionService SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{BaseHandler: base, subscriptionService: subscriptionService}
}

type dueQuery struct {
	Days int `form:"days" binding:"omitempty,min=1"`
}

// List godoc
// @ID           listSubscriptions
// @Summary      List subscriptions
// @Description  Retrieve a paginated list of subscriptions. Cancelled ones are hidden unless include_cancelled is set
// @Tags         subscriptions
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Param        search query string false "Search term"
// @Param        status query string false "Subscription status" Enums(ACTIVE, PAUSED, CANCELLED, PAID_IN_ADVANCE)
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        include_cancelled query bool false "Include cancelled subscriptions" default(false)
// @Success      200 {object} dto.Response{data=[]billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions [get]
func (h *SubscriptionHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter billingapp.SubscriptionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	subs, total, err := h.subscriptionService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, "Subscriptions retrieved", subs, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createSubscription
// @Summary      Create a subscription
// @Description  Subscribe a client to a service. The next billing date is computed from the start date and billing day
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        request body billingapp.CreateSubscriptionRequest true "Subscription"
// @Success      201 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req billingapp.CreateSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Subscription created", sub)
}

// Due godoc
// @ID           listDueSubscriptions
// @Summary      List due subscriptions
// @Description  Retrieve active subscriptions whose next billing date falls within the next days
// @Tags         subscriptions
// @Produce      json
// @Param        days query int false "Window in days" minimum(1) maximum(365)
// @Success      200 {object} dto.Response{data=billingapp.DueSubscriptionsResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions/due [get]
func (h *SubscriptionHandler) Due(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q dueQuery
	if !h.bindQuery(c, &q) {
		return
	}
	due, err := h.subscriptionService.Due(c.Request.Context(), ownerID, q.Days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Due subscriptions retrieved", due)
}

// GetByID godoc
// @ID           getSubscription
// @Summary      Get a subscription
// @Description  Retrieve a subscription by ID
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptionService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Subscription retrieved", sub)
}

// Update godoc
// @ID           updateSubscription
// @Summary      Update a subscription
// @Description  Partially update a subscription. Changing the cycle or billing day recomputes the next billing date
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billingapp.UpdateSubscriptionRequest true "Subscription fields"
// @Success      200 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions/{id} [put]
func (h *SubscriptionHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateSubscriptionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sub, err := h.subscriptionService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Subscription updated", sub)
}

// Cancel godoc
// @ID           cancelSubscription
// @Summary      Cancel a subscription
// @Description  Cancel a subscription. Subscriptions are never hard-deleted
// @Tags         subscriptions
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Success      200 {object} dto.Response{data=billingapp.SubscriptionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions/{id}/cancel [post]
// @Router       /subscriptions/{id} [delete]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Subscription cancelled", sub)
}

// GenerateInvoice godoc
// @ID           generateSubscriptionInvoice
// @Summary      Generate the next invoice
// @Description  Invoice the current billing period and advance the next billing date by one cycle
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        id path string true "Subscription ID" format(uuid)
// @Param        request body billingapp.GenerateInvoiceRequest false "Invoice overrides"
// @Success      201 {object} dto.Response{data=billingapp.GeneratedInvoiceResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /subscriptions/{id}/generate-invoice [post]
func (h *SubscriptionHandler) GenerateInvoice(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req billingapp.GenerateInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.subscriptionService.GenerateInvoice(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Invoice generated", result)
}
