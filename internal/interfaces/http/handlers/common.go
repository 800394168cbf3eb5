// Package handlers implements the REST endpoints of the facade.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PatentCliff/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps an error to its status and the standard body.  Codes
// without a 4xx mapping are masked.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}

	status := errors.HTTPStatusForCode(ae.Code)
	msg := ae.Message
	if ae.Detail != "" {
		msg += ": " + ae.Detail
	}
	if status >= http.StatusInternalServerError && ae.Code != errors.ErrCodeFeatureDisabled {
		msg = errors.DefaultMessageForCode(ae.Code)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: string(ae.Code), Message: msg})
}

// bindError reports a malformed or oversized body.
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Code:    string(errors.ErrCodeBadRequest),
			Message: "request body too large",
		})
		return
	}
	writeAppError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed request body"))
}

//Personal.AI order the ending
