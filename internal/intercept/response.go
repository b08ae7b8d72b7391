package intercept

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
)

const contentTypeJSON = "application/json"

// newResponse builds a synthesized response for req. Every response carries
// permissive CORS headers so browser-based wallets can read it.
func newResponse(req *http.Request, status int, contentType string, body []byte) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Headers", "*")
	header.Set("Content-Length", strconv.Itoa(len(body)))

	return &http.Response{
		Status:        strconv.Itoa(status) + " " + http.StatusText(status),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

// jsonResponse encodes v as the response body. An encoding failure yields
// a 500 instead.
func jsonResponse(req *http.Request, status int, v interface{}) *http.Response {
	body, err := json.Marshal(v)
	if err != nil {
		return errorResponse(req, http.StatusInternalServerError, "failed to encode response")
	}
	return newResponse(req, status, contentTypeJSON, body)
}

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(req *http.Request, status int, msg string) *http.Response {
	body, _ := json.Marshal(errorBody{Error: msg})
	return newResponse(req, status, contentTypeJSON, body)
}
