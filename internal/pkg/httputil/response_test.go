package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHelpers(t *testing.T) {
	cases := []struct {
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest, "bad_request"},
		{func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound, "not_found"},
		{func(w http.ResponseWriter) { Conflict(w, "busy") }, http.StatusConflict, "conflict"},
		{func(w http.ResponseWriter) { Unprocessable(w, "empty") }, http.StatusUnprocessableEntity, "unprocessable"},
		{func(w http.ResponseWriter) { NotImplemented(w, "no db") }, http.StatusNotImplemented, "not_configured"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.write(rec)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
		assert.NotEmpty(t, body.Error)
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	InternalError(rec, errors.New("dial tcp 10.0.0.5:5432: refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
