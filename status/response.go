package status

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tomoflow/errors"
)

// dataResponse is the success envelope.
type dataResponse struct {
	Data any `json:"data"`
}

type errorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dataResponse{Data: data})
}

// respondError derives the status code from err's AppError code; anything
// else is a 500.
func respondError(c *gin.Context, err error) {
	appErr := errors.Wrap(err)
	c.JSON(httpStatus(appErr.Code), errorResponse{Error: errorBody{Code: appErr.Code, Message: appErr.Message}})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPattern, errors.ErrCodeOutOfRange:
		return http.StatusBadRequest
	case errors.ErrCodeAlreadyExists:
		return http.StatusConflict
	case errors.ErrCodeFrameUnavailable, errors.ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
