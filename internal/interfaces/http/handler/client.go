package handler

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	partnerapp "github.com/invoicer/backend/internal/application/partner"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// ClientHandler serves /api/clients
type ClientHandler struct {
	BaseHandler
	clientService ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(base BaseHandler, clientService ClientService) *ClientHandler {
	return &ClientHandler{BaseHandler: base, clientService: clientService}
}

// List godoc
// @ID           listClients
// @Summary      List clients
// @Description  Retrieve a paginated list of clients with optional search and country filter
// @Tags         clients
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Order by field"
// @Param        order_dir query string false "Order direction" Enums(asc, desc)
// @Param        search query string false "Search term"
// @Param        country query string false "Country"
// @Success      200 {object} dto.Response{data=[]partnerapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var filter partnerapp.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	clients, total, err := h.clientService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, "Clients retrieved", clients, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createClient
// @Summary      Create a client
// @Description  Create a client of the authenticated user
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.ClientRequest true "Client"
// @Success      201 {object} dto.Response{data=partnerapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var req partnerapp.ClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, "Client created", client)
}

// GetByID godoc
// @ID           getClient
// @Summary      Get a client
// @Description  Retrieve a client by ID
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response{data=partnerapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Client retrieved", client)
}

// Update godoc
// @ID           updateClient
// @Summary      Update a client
// @Description  Replace the fields of a client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body partnerapp.ClientRequest true "Client"
// @Success      200 {object} dto.Response{data=partnerapp.ClientResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.ClientRequest
	if !h.bindJSON(c, &req) {
		return
	}
	client, err := h.clientService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Client updated", client)
}

// Delete godoc
// @ID           deleteClient
// @Summary      Delete a client
// @Description  Delete a client that has no invoices, orders or subscriptions
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.clientService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "Client deleted", nil)
}

type importQuery struct {
	DryRun bool `form:"dry_run"`
}

// Import godoc
// @ID           importClients
// @Summary      Import clients from CSV
// @Description  Validate every row of a CSV file and create all clients in one transaction. The file is sent as the "file" field of a multipart form or as the raw body. With dry_run nothing is saved
// @Tags         clients
// @Accept       multipart/form-data,text/csv
// @Produce      json
// @Param        dry_run query bool false "Validate only" default(false)
// @Param        file formData file false "CSV file"
// @Success      200 {object} dto.Response{data=partnerapp.ClientImportResult} "dry_run"
// @Success      201 {object} dto.Response{data=partnerapp.ClientImportResult}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/import [post]
func (h *ClientHandler) Import(c *gin.Context) {
	ownerID, ok := h.ownerID(c)
	if !ok {
		return
	}
	var q importQuery
	if !h.bindQuery(c, &q) {
		return
	}

	body, err := importBody(c)
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, err.Error())
		return
	}
	defer body.Close()

	result, err := h.clientService.Import(c.Request.Context(), ownerID, body, q.DryRun)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if q.DryRun {
		h.Success(c, "Import file is valid", result)
		return
	}
	h.Created(c, "Clients imported", result)
}

func importBody(c *gin.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, errors.New("multipart field \"file\" is required")
		}
		return fh.Open()
	}
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil, errors.New("request body is empty")
	}
	return c.Request.Body, nil
}

// ImportTemplate godoc
// @ID           getClientImportTemplate
// @Summary      Download the client import template
// @Description  Return a CSV file holding only the recognized header row
// @Tags         clients
// @Produce      text/csv
// @Success      200 {file} binary
// @Failure      401 {object} dto.Response
// @Security     BearerAuth
// @Router       /clients/import/template [get]
func (h *ClientHandler) ImportTemplate(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="clients.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	w := csv.NewWriter(c.Writer)
	_ = w.Write(partnerapp.ClientImportColumns)
	w.Flush()
}
