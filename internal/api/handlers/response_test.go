package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestRespondJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondJSON(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"id":7}}`, rec.Body.String())
}

func TestRespondErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, http.StatusConflict, CodeSlotUnavailable, "pick another time")

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "pick another time", env.Error)
	assert.Equal(t, CodeSlotUnavailable, env.Code)
}

func TestRespondInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondInternalError(rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternalError, decodeEnvelope(t, rec).Error)
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane"}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, "Jane", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane","extra":1}`))
	assert.Error(t, DecodeJSON(r, &v))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, DecodeJSON(r, &v), ErrEmptyBody)
}

func TestPathInt64(t *testing.T) {
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "42"})
	id, err := PathInt64(r, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"abc", "0", "-1", ""} {
		r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": raw})
		_, err = PathInt64(r, "id")
		assert.Error(t, err, raw)
	}
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?start=2025-06-02&bad=02.06.2025&n=5&s=x", nil)

	date, err := QueryDate(r, "start", true)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-02", date.Format("2006-01-02"))

	_, err = QueryDate(r, "bad", false)
	assert.Error(t, err)

	_, err = QueryDate(r, "end", true)
	assert.Error(t, err)

	missing, err := QueryDate(r, "end", false)
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := QueryInt64(r, "n")
	require.NoError(t, err)
	assert.Equal(t, int64(5), *n)

	assert.Equal(t, "x", *QueryString(r, "s"))
	assert.Nil(t, QueryString(r, "none"))
}
