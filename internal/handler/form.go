package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/footballcurrency/portal/internal/domain"
	"github.com/footballcurrency/portal/internal/service"
)

const multipartMemory = 8 << 20

// ParseForm accepts both urlencoded and multipart bodies.
func ParseForm(r *http.Request) error {
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return domain.ErrValidation("Request is too large.")
	}
	return domain.ErrValidation("Invalid form submission.")
}

// formUpload returns the file sent in field, or nil when none was chosen.
// The caller closes the returned file.
func formUpload(r *http.Request, field string) (*service.Upload, multipart.File, error) {
	file, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, domain.ErrValidation("Invalid file upload.")
	}
	if hdr.Filename == "" {
		file.Close()
		return nil, nil, nil
	}
	return &service.Upload{Filename: hdr.Filename, Body: file}, file, nil
}
