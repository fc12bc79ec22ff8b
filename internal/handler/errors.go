package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/dto"
	"github.com/prperemyshlev/auth-core/internal/service"
)

var codeStatus = map[service.Code]int{
	service.CodeValidation:         http.StatusBadRequest,
	service.CodeAlreadyExists:      http.StatusConflict,
	service.CodeNotFound:           http.StatusNotFound,
	service.CodeAlreadyVerified:    http.StatusConflict,
	service.CodeInvalidOrExpired:   http.StatusBadRequest,
	service.CodeInvalidCredentials: http.StatusUnauthorized,
	service.CodeServerError:        http.StatusInternalServerError,
}

var statusTitle = map[int]string{
	http.StatusBadRequest:          "Bad request",
	http.StatusConflict:            "Conflict",
	http.StatusNotFound:            "Not found",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusInternalServerError: "Internal server error",
}

// writeError renders a service error. Anything that is not a
// *service.Error is reported as a server error without detail.
func writeError(c *gin.Context, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		svcErr = service.ErrServer
	}

	status, ok := codeStatus[svcErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	resp := dto.ErrorResponse{
		Error:   statusTitle[status],
		Message: svcErr.Message,
	}
	if len(svcErr.Fields) > 0 {
		resp.Details = gin.H{"fields": svcErr.Fields}
	}

	c.JSON(status, resp)
}

func writeBindError(c *gin.Context) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "Validation failed",
		Message: service.ErrValidation.Message,
	})
}
