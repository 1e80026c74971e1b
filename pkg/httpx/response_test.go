package httpx

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "o-1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"o-1"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "invalid body")
	assert.JSONEq(t, `{"success":false,"error":"invalid body"}`, rec.Body.String())
}

func response(code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body))}
}

func TestDecode(t *testing.T) {
	type order struct {
		ID string `json:"id"`
	}

	got, err := Decode[order](response(200, `{"success":true,"data":{"id":"o-9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "o-9", got.ID)

	_, err = Decode[order](response(200, `{"success":false,"error":"branch closed"}`))
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "branch closed", se.Message)

	_, err = Decode[order](response(502, `<html>bad gateway</html>`))
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 502, se.Code)
}
