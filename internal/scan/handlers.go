package scan

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleCreateScan accepts either a receipt image (multipart form, field
// "file") to be transcribed, or a raw transcript (text/plain body or JSON
// {"text": ...}), and runs it through the pipeline.
func (s *Server) handleCreateScan(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var (
		record *Record
		err    error
	)
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		record, err = s.createScanFromUpload(w, r)
		if record == nil && err == nil {
			return // response already written
		}
	case strings.HasPrefix(contentType, "application/json"):
		var req struct {
			Text string `json:"text"`
		}
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil || strings.TrimSpace(req.Text) == "" {
			jsonError(w, "Request body must carry a non-empty transcript in the \"text\" field", http.StatusBadRequest)
			return
		}
		record, err = s.service.ProcessTranscript(r.Context(), req.Text)
	default:
		body, readErr := io.ReadAll(r.Body)
		if readErr != nil || strings.TrimSpace(string(body)) == "" {
			jsonError(w, "Request body must carry a receipt transcript", http.StatusBadRequest)
			return
		}
		record, err = s.service.ProcessTranscript(r.Context(), string(body))
	}

	if err != nil {
		slog.Error("Error processing scan", "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// createScanFromUpload handles the multipart image path. On a client error it
// writes the response itself and returns (nil, nil).
func (s *Server) createScanFromUpload(w http.ResponseWriter, r *http.Request) (*Record, error) {
	// 50MB ceiling to accommodate high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, msg, http.StatusBadRequest)
		return nil, nil
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file was selected. Please choose a file to upload.", http.StatusBadRequest)
		return nil, nil
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return nil, nil
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, nil
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	return s.service.ProcessImage(r.Context(), data, contentType)
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// handleListScans returns a list of all scans
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.ListScans()
	if err != nil {
		slog.Error("Error listing scans", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(records); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetScan returns a single scan
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetScan(id)
	if err != nil {
		corsError(w, "Scan not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetComparisons returns the ordered comparison list for a scan, for
// the display layer to render with savings/questionable treatment
func (s *Server) handleGetComparisons(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetScan(id)
	if err != nil {
		corsError(w, "Scan not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(record.Comparisons); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetPriceRows returns the persisted price observations for a scan
func (s *Server) handleGetPriceRows(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	rows, err := s.service.GetPriceRows(id)
	if err != nil {
		slog.Error("Error getting price rows", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleDeleteScan deletes a scan
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteScan(id); err != nil {
		corsError(w, "Scan not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
