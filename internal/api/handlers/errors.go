package handlers

import (
	"errors"
	"net/http"

	"pairs-backtest/internal/api/models"
	"pairs-backtest/internal/model"

	"github.com/gin-gonic/gin"
)

// errorStatus maps the domain error taxonomy onto HTTP.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrConfig):
		return http.StatusBadRequest, "INVALID_CONFIG"
	case errors.Is(err, model.ErrMarginDepleted):
		return http.StatusUnprocessableEntity, "MARGIN_DEPLETED"
	case errors.Is(err, model.ErrInvalidPrice):
		return http.StatusUnprocessableEntity, "INVALID_PRICE"
	case errors.Is(err, model.ErrData):
		return http.StatusUnprocessableEntity, "DATA_ERROR"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func errorDetail(err error) models.ErrorDetail {
	_, code := errorStatus(err)
	return models.ErrorDetail{Code: code, Message: err.Error()}
}

func respondError(c *gin.Context, err error) {
	status, _ := errorStatus(err)
	c.JSON(status, models.ErrorResponse{Error: errorDetail(err)})
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}
