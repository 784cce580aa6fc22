package handler

import (
	"github.com/gin-gonic/gin"

	partnerapp "github.com/invoicer/backend/internal/application/partner"
)

// CompanyHandler serves /api/companies and their payment methods
type CompanyHandler struct {
	BaseHandler
	companyService CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(base BaseHandler, companyService CompanyService) *CompanyHandler {
	return &CompanyHandler{BaseHandler: base, companyService: companyService}
}

// List godoc
// @ID           listCompanies
// @Summary      List companies
// @Description  Retrieve the companies the user invoices from, default company first
// @Tags         companies
// @Produce      json
// @Success      200 {object} dto.Response{data=[]partnerapp.CompanyResponse}
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	companies, err := h.companyService.List(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Companies retrieved", companies)
}

// Create godoc
// @ID           createCompany
// @Summary      Create a company
// @Description  Create a company. The first company becomes the default
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreateCompanyRequest true "Company"
// @Success      201 {object} dto.Response{data=partnerapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req partnerapp.CreateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, err := h.companyService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Company created", company)
}

// GetByID godoc
// @ID           getCompany
// @Summary      Get a company
// @Description  Retrieve a company by ID
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id} [get]
func (h *CompanyHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	company, err := h.companyService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Company retrieved", company)
}

// Update godoc
// @ID           updateCompany
// @Summary      Update a company
// @Description  Partially update a company. Setting is_default clears it on the other companies
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Param        request body partnerapp.UpdateCompanyRequest true "Company fields"
// @Success      200 {object} dto.Response{data=partnerapp.CompanyResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id} [patch]
// @Router       /companies/{id} [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	company, err := h.companyService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Company updated", company)
}

// Delete godoc
// @ID           deleteCompany
// @Summary      Delete a company
// @Description  Delete a company that has no invoices
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id} [delete]
func (h *CompanyHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.companyService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Company deleted", nil)
}

// ListPaymentMethods godoc
// @ID           listPaymentMethods
// @Summary      List payment methods
// @Description  Retrieve the payment methods printed on invoices of a company
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]partnerapp.PaymentMethodResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id}/payment-methods [get]
func (h *CompanyHandler) ListPaymentMethods(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	methods, err := h.companyService.ListPaymentMethods(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment methods retrieved", methods)
}

// AddPaymentMethod godoc
// @ID           addPaymentMethod
// @Summary      Add a payment method
// @Description  Add a bank account or other payment method to a company
// @Tags         companies
// @Accept       json
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Param        request body partnerapp.PaymentMethodRequest true "Payment method"
// @Success      201 {object} dto.Response{data=partnerapp.PaymentMethodResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id}/payment-methods [post]
func (h *CompanyHandler) AddPaymentMethod(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.PaymentMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	method, err := h.companyService.AddPaymentMethod(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Payment method added", method)
}

// DeletePaymentMethod godoc
// @ID           deletePaymentMethod
// @Summary      Delete a payment method
// @Description  Remove a payment method from a company
// @Tags         companies
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Param        methodId path string true "Payment method ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /companies/{id}/payment-methods/{methodId} [delete]
func (h *CompanyHandler) DeletePaymentMethod(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	methodID, ok := h.pathID(c, "methodId")
	if !ok {
		return
	}
	if err := h.companyService.DeletePaymentMethod(c.Request.Context(), ownerID, id, methodID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Payment method deleted", nil)
}
