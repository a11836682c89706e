package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

func newTestRouter(s *fakeSessions, c *fakeCatalog, p Pinger) http.Handler {
	if s == nil {
		s = &fakeSessions{}
	}
	if c == nil {
		c = &fakeCatalog{}
	}
	return NewRouter(NewHandler(s, c, p, logging.Discard()), []string{"https://app.example.com"})
}

func do(t *testing.T, h http.Handler, method, path, body string, authorized bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func errText(e envelope) string {
	if e.Error == nil {
		return "<null>"
	}
	return *e.Error
}

func jsonDecode(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
