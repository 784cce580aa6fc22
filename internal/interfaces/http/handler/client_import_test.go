package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	partnerapp "github.com/invoicer/backend/internal/application/partner"
	"github.com/invoicer/backend/internal/infrastructure/csvimport"
)

const importCSV = "name,email\nAcme,billing@acme.test\n"

func setupImportRoutes(userID string, svc ClientService) http.Handler {
	h := NewClientHandler(NewBaseHandler(false), svc)
	r := newTestRouter(userID)
	r.POST("/api/clients/import", h.Import)
	r.GET("/api/clients/import/template", h.ImportTemplate)
	return r
}

func TestClientHandler_Import_RawBody(t *testing.T) {
	ownerID := uuid.New()
	svc := new(mockClientService)
	svc.On("Import", mock.Anything, ownerID, importCSV, false).
		Return(&partnerapp.ClientImportResult{TotalRows: 1, ValidRows: 1, Imported: 1}, nil)

	w := perform(t, setupImportRoutes(ownerID.String(), svc), http.MethodPost, "/api/clients/import", importCSV)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	assert.Equal(t, "Clients imported", env.Message)
	assert.Contains(t, string(env.Data), `"imported":1`)
	svc.AssertExpectations(t)
}

func TestClientHandler_Import_MultipartDryRun(t *testing.T) {
	ownerID := uuid.New()
	svc := new(mockClientService)
	svc.On("Import", mock.Anything, ownerID, importCSV, true).
		Return(&partnerapp.ClientImportResult{TotalRows: 1, ValidRows: 1, DryRun: true}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "clients.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/clients/import?dry_run=true", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	setupImportRoutes(ownerID.String(), svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Import file is valid", decode(t, w).Message)
	svc.AssertExpectations(t)
}

func TestClientHandler_Import_Errors(t *testing.T) {
	ownerID := uuid.New()

	t.Run("empty body", func(t *testing.T) {
		w := perform(t, setupImportRoutes(ownerID.String(), new(mockClientService)), http.MethodPost, "/api/clients/import", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_BAD_REQUEST", decode(t, w).Error)
	})

	t.Run("multipart without file field", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("other", "x"))
		require.NoError(t, mw.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/clients/import", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		setupImportRoutes(ownerID.String(), new(mockClientService)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file")
	})

	t.Run("invalid rows carry row errors", func(t *testing.T) {
		svc := new(mockClientService)
		result := &partnerapp.ClientImportResult{
			TotalRows: 2, ValidRows: 1, ErrorRows: 1,
			Errors: []csvimport.RowError{{Line: 3, Column: "email", Code: csvimport.CodeInvalidType, Message: "expected email"}},
		}
		svc.On("Import", mock.Anything, ownerID, mock.Anything, false).
			Return(nil, partnerapp.ErrImportInvalid.WithDetails(result))

		w := perform(t, setupImportRoutes(ownerID.String(), svc), http.MethodPost, "/api/clients/import", "name,email\nA,a@a.test\nB,nope\n")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		assert.Equal(t, "ERR_IMPORT_INVALID", env.Error)
		assert.Contains(t, string(env.Details), `"line":3`)
	})
}

func TestClientHandler_ImportTemplate(t *testing.T) {
	w := perform(t, setupImportRoutes(uuid.NewString(), new(mockClientService)), http.MethodGet, "/api/clients/import/template", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clients.csv")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("name,email,company_name,")))
}
