package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-fulfillment/pkg/apperror"
)

func TestFromError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.Validation("INSUFFICIENT_STOCK", "x"), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{apperror.NotFound("ORDER_NOT_FOUND", "x"), http.StatusNotFound, "ORDER_NOT_FOUND"},
		{apperror.State("ORDER_INVALID_TRANSITION", "x"), http.StatusUnprocessableEntity, "ORDER_INVALID_TRANSITION"},
		{apperror.Conflict("DB_CONFLICT", "x"), http.StatusConflict, "DB_CONFLICT"},
		{apperror.ExternalGateway("PAY_INVALID_SIGNATURE", "x"), http.StatusBadGateway, "PAY_INVALID_SIGNATURE"},
		{errors.New("raw"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest("GET", "/", nil)

		FromError(c, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		var body Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.code, body.Error.Code)
	}
}
