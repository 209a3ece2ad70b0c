package echoapi

import (
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ngoma/core"
)

func registerUploadAPI(g *echo.Group, jwt echo.MiddlewareFunc) {
	g.POST("/uploads", uploadFile, jwt, authorize("uploads", actionWrite))
}

// uploadFile stores a multipart "file" part under UploadDir with a random
// name (the original name survives in the response only) and returns the
// served URL + metadata, ready to be referenced by a study material.
func uploadFile(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(errors.New("a \"file\" form field is required"),
			core.FieldError{Field: "file", Error: "required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	dir := core.Conf.Server.UploadDir
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating upload dir")
	}

	name := uuid.New().String() + filepath.Ext(fileHeader.Filename)
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return errors.Wrap(err, "creating file")
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return errors.Wrap(err, "saving file")
	}

	return respond(ctx, http.StatusCreated, UploadResponse{
		FileURL:  path.Join(core.Conf.Server.UploadBaseURL, name),
		FileName: fileHeader.Filename,
		FileSize: size,
	})
}

type UploadResponse struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}
