package handler

import (
	"github.com/gin-gonic/gin"

	catalogapp "github.com/invoicer/backend/internal/application/catalog"
)

// ServiceItemHandler serves the service library under /api/services
type ServiceItemHandler struct {
	BaseHandler
	itemService ServiceItemService
}

// NewServiceItemHandler creates a new ServiceItemHandler
func NewServiceItemHandler(base BaseHandler, itemService ServiceItemService) *ServiceItemHandler {
	return &ServiceItemHandler{BaseHandler: base, itemService: itemService}
}

// List godoc
// @ID           listServices
// @Summary      List services
// @Description  Retrieve a paginated list of the service library
// @Tags         services
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Param        search query string false "Search term"
// @Param        category query string false "Category" Enums(DEVELOPMENT, DESIGN, CONSULTING, HOSTING, MAINTENANCE, OTHER)
// @Param        include_inactive query bool false "Include inactive services" default(false)
// @Success      200 {object} dto.Response{data=[]catalogapp.ServiceItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /services [get]
func (h *ServiceItemHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter catalogapp.ServiceItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.itemService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, "Services retrieved", items, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createService
// @Summary      Create a service
// @Description  Add a service to the library
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        request body catalogapp.CreateServiceItemRequest true "Service"
// @Success      201 {object} dto.Response{data=catalogapp.ServiceItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /services [post]
func (h *ServiceItemHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req catalogapp.CreateServiceItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.itemService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Service created", item)
}

// GetByID godoc
// @ID           getService
// @Summary      Get a service
// @Description  Retrieve a service by ID
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Success      200 {object} dto.Response{data=catalogapp.ServiceItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /services/{id} [get]
func (h *ServiceItemHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.itemService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Service retrieved", item)
}

// Update godoc
// @ID           updateService
// @Summary      Update a service
// @Description  Partially update a service
// @Tags         services
// @Accept       json
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Param        request body catalogapp.UpdateServiceItemRequest true "Service fields"
// @Success      200 {object} dto.Response{data=catalogapp.ServiceItemResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /services/{id} [patch]
// @Router       /services/{id} [put]
func (h *ServiceItemHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateServiceItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.itemService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Service updated", item)
}

// Delete godoc
// @ID           deleteService
// @Summary      Delete a service
// @Description  Delete a service that no subscription uses
// @Tags         services
// @Produce      json
// @Param        id path string true "Service ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /services/{id} [delete]
func (h *ServiceItemHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.itemService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Service deleted", nil)
}
