package server

import (
	"net/http"
	"strconv"

	"taskadmin/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
	"go.uber.org/zap"
)

var errorTitles = map[int]string{
	http.StatusBadRequest:          "Bad Request",
	http.StatusNotFound:            "Not Found",
	http.StatusMethodNotAllowed:    "Method Not Allowed",
	http.StatusInternalServerError: "Server Error",
}

func respondError(ctx *gin.Context, code int, message string) {
	title, ok := errorTitles[code]
	if !ok {
		title = http.StatusText(code)
	}
	ctx.JSON(code, gin.H{"error": title, "message": message})
}

// respondInternal logs the cause and answers with a generic message.
func (api *TaskAPI) respondInternal(ctx *gin.Context, err error, message string) {
	api.log.Error(message,
		zap.Error(err),
		zap.String("method", ctx.Request.Method),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(requestIDKey)),
	)
	respondError(ctx, http.StatusInternalServerError, message)
}

func respondList(ctx *gin.Context, data any) {
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

// pathID parses a numeric path parameter; invalid yields errInvalid.
func pathID(ctx *gin.Context, param string, errInvalid error) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(param), 10, 64)
	if err != nil {
		respondError(ctx, http.StatusBadRequest, errInvalid.Error())
		return 0, false
	}
	return id, true
}

// validationErrorToErrorResponse maps the first failing field to a client
// message. Any missing required field yields requiredErr.
func validationErrorToErrorResponse(err error, requiredErr error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrValidationFailed
	}
	for _, verr := range verrs {
		if verr.Tag() == "required" {
			return requiredErr
		}
	}
	for _, verr := range verrs {
		switch verr.Field() {
		case "Name":
			return errors.ErrInvalidName
		case "Email":
			return errors.ErrInvalidEmail
		case "Title":
			return errors.ErrInvalidTitle
		case "Description":
			return errors.ErrInvalidDescription
		case "Status":
			return errors.ErrInvalidStatus
		}
	}
	return errors.ErrValidationFailed
}
