package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire format for every response, success or failure.
// Code doubles as the HTTP status when it is a valid one.
type Envelope struct {
	Status bool        `json:"status"`
	Code   uint        `json:"code"`
	Data   interface{} `json:"data,omitempty"`
	Msg    string      `json:"msg"`
}

// OK builds a success envelope with the given payload.
func OK(data interface{}) Envelope {
	return Envelope{Status: true, Code: http.StatusOK, Data: data, Msg: "ok"}
}

// Fail builds a generic failure envelope with code 400.
func Fail(msg string) Envelope {
	return Envelope{Status: false, Code: http.StatusBadRequest, Msg: msg}
}

// FailCode builds a failure envelope with an explicit code.
func FailCode(code uint, msg string) Envelope {
	return Envelope{Status: false, Code: code, Msg: msg}
}

// HTTPStatus returns the envelope's code as an HTTP status, falling back
// to 500 when the code is not a valid status.
func (e Envelope) HTTPStatus() int {
	if e.Code >= 100 && e.Code < 600 {
		return int(e.Code)
	}
	return http.StatusInternalServerError
}

// WriteEnvelope serializes the envelope as the response body with the
// matching HTTP status.
func WriteEnvelope(w http.ResponseWriter, e Envelope) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	return json.NewEncoder(w).Encode(e)
}

// WriteOK writes a success envelope wrapping data.
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteEnvelope(w, OK(data))
}

// WriteFail writes a generic failure envelope.
func WriteFail(w http.ResponseWriter, msg string) {
	_ = WriteEnvelope(w, Fail(msg))
}

// WriteFailCode writes a failure envelope with an explicit code.
func WriteFailCode(w http.ResponseWriter, code uint, msg string) {
	_ = WriteEnvelope(w, FailCode(code, msg))
}
