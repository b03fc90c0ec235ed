package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/gin-gonic/gin"
)

const internalMessage = "An unexpected error occurred"

var statuses = []struct {
	err    error
	status int
}{
	{common.ErrValidation, http.StatusBadRequest},
	{common.ErrUnauthorized, http.StatusUnauthorized},
	{common.ErrInvalidToken, http.StatusUnauthorized},
	{common.ErrForbidden, http.StatusForbidden},
	{common.ErrNotFound, http.StatusNotFound},
	{common.ErrAlreadyExists, http.StatusConflict},
}

// statusOf maps a service error to its HTTP status and client message.
// Unknown errors are 500 and their text stays in the log.
func statusOf(err error) (int, string) {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			msg := strings.TrimSuffix(err.Error(), ": "+s.err.Error())
			return s.status, msg
		}
	}
	return http.StatusInternalServerError, internalMessage
}

func fail(c *gin.Context, err error) {
	status, msg := statusOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, api.ErrorResponse{Error: msg})
}
