package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"hostel-pg/middleware"
	"hostel-pg/models"
)

// maxUploadBytes caps the raw upload before recompression.
const maxUploadBytes = 10 << 20

// UploadDocument takes a multipart "file" for the caller's own document.
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFrom(r.Context())
	h.upload(w, r, session.UID)
}

// UploadTenantDocument is the admin variant for any tenant.
func (h *Handlers) UploadTenantDocument(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, mux.Vars(r)["uid"])
}

func (h *Handlers) upload(w http.ResponseWriter, r *http.Request, uid string) {
	doc, ok := models.ParseDocumentType(mux.Vars(r)["type"])
	if !ok {
		sendError(w, http.StatusBadRequest, "Unknown document type", models.DocumentTypes)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid multipart upload", err.Error())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		sendError(w, http.StatusBadRequest, "file is required", nil)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Could not read upload", err.Error())
		return
	}

	photos, err := h.svc.Documents.Upload(r.Context(), actor(r), uid, doc, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%s uploaded", doc),
		"photos":  photos,
	})
}
