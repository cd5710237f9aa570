package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errNoFile = errors.New("no file")

// readUpload reads a multipart file field, refusing anything over max bytes.
func readUpload(c *gin.Context, field string, max int64) ([]byte, *multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, errNoFile
		}
		return nil, nil, err
	}
	if fh.Size > max {
		return nil, fh, fmt.Errorf("file is larger than %dMB", max>>20)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fh, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fh, err
	}
	if int64(len(data)) > max {
		return nil, fh, fmt.Errorf("file is larger than %dMB", max>>20)
	}
	return data, fh, nil
}

func uploadError(c *gin.Context, field string, err error) {
	msg := "Invalid upload"
	if errors.Is(err, errNoFile) {
		msg = "Please choose a file to upload"
	} else if err != nil {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg, "field": field})
}
