package chi

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/kailas-cloud/dbconsole/internal/domain"
	"github.com/kailas-cloud/dbconsole/internal/domain/table"
	uploaduc "github.com/kailas-cloud/dbconsole/internal/usecase/upload"
)

// multipartMemory is the part of a multipart form kept in memory; the rest spills to disk.
const multipartMemory = 8 << 20

// Upload handles POST /api/upload (multipart: file, table_name).
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	up, err := s.uploads.Upload(r.Context(), header.Filename, r.FormValue("table_name"), header.Size, file)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		FileName:    up.FileName,
		TableName:   up.TableName,
		FileSize:    up.FileSize,
		RecordCount: up.RecordCount,
		Inserted:    up.Inserted,
		Failed:      up.Failed,
		Preview:     tableToResponse(table.Result{Headers: up.Headers, Rows: up.Rows}),
		Message:     up.Message,
	})
}

// PreviewUpload handles POST /api/upload/preview. Nothing is sent to the engine.
func (s *Server) PreviewUpload(w http.ResponseWriter, r *http.Request) {
	file, header, ok := s.formFile(w, r)
	if !ok {
		return
	}
	defer file.Close()

	if !uploaduc.IsCSV(header.Filename) {
		s.handleDomainError(w, r, fmt.Errorf("%w: %q is not a .csv file", domain.ErrUnsupportedFile, header.Filename))
		return
	}

	res, total, err := s.uploads.Preview(file, uploaduc.PreviewRows)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PreviewResponse{
		FileName:  header.Filename,
		FileSize:  uploaduc.FormatFileSize(header.Size),
		TotalRows: total,
		Preview:   tableToResponse(res),
	})
}

// SampleCSV handles GET /api/upload/sample.
func (s *Server) SampleCSV(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ejemplo.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(s.uploads.SampleCSV())
}

func (s *Server) formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("upload exceeds %s", uploaduc.FormatFileSize(s.maxUpload)))
			return nil, nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart body: "+err.Error())
		return nil, nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file is required")
		return nil, nil, false
	}
	return file, header, true
}
