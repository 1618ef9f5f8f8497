package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ResultKind tags the shape the gateway used for the "result" field.
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultText
	ResultJSON
)

func (k ResultKind) String() string {
	switch k {
	case ResultText:
		return "text"
	case ResultJSON:
		return "json"
	default:
		return "none"
	}
}

// Result is the decoded "result" field of a gateway response.
//
// The gateway sometimes sends a structured value and sometimes the same value
// JSON-encoded inside a string. The rule is: a string is embedded JSON if and
// only if its content is valid JSON, in which case Kind is ResultJSON and
// Encoded is set. Any other string is ResultText.
type Result struct {
	Kind    ResultKind
	Text    string
	JSON    json.RawMessage
	Encoded bool
}

// DecodeResult applies the decoding rule to a gjson value.
func DecodeResult(v gjson.Result) Result {
	if !v.Exists() {
		return Result{Kind: ResultNone}
	}
	switch v.Type {
	case gjson.Null:
		return Result{Kind: ResultNone}
	case gjson.String:
		inner := strings.TrimSpace(v.Str)
		if inner != "" && gjson.Valid(inner) {
			return Result{Kind: ResultJSON, JSON: json.RawMessage(inner), Encoded: true}
		}
		return Result{Kind: ResultText, Text: v.Str}
	default:
		return Result{Kind: ResultJSON, JSON: json.RawMessage(v.Raw)}
	}
}

// Display renders the value shown to users. Objects carrying an inner
// "result" field display that field.
func (r Result) Display() string {
	switch r.Kind {
	case ResultText:
		return r.Text
	case ResultJSON:
		v := gjson.ParseBytes(r.JSON)
		if v.IsObject() {
			if inner := v.Get("result"); inner.Exists() {
				return displayValue(inner)
			}
		}
		return displayValue(v)
	}
	return ""
}

func displayValue(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return v.Raw
		}
		return buf.String()
	default:
		return v.Raw
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultText:
		return json.Marshal(r.Text)
	case ResultJSON:
		return r.JSON, nil
	}
	return []byte("null"), nil
}

// GatewayResponse is a parsed gateway reply. Body keeps the original document
// when it was valid JSON.
type GatewayResponse struct {
	Status  int             `json:"status"`
	Result  Result          `json:"result"`
	Message string          `json:"message,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
}

// ParseGatewayResponse never fails: a body that is not JSON is kept as a text
// result so it can still be displayed.
func ParseGatewayResponse(status int, body []byte) *GatewayResponse {
	resp := &GatewayResponse{Status: status}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return resp
	}
	if !gjson.ValidBytes(trimmed) {
		resp.Result = Result{Kind: ResultText, Text: string(trimmed)}
		return resp
	}
	resp.Body = json.RawMessage(trimmed)
	doc := gjson.ParseBytes(trimmed)
	if !doc.IsObject() {
		resp.Result = DecodeResult(doc)
		return resp
	}
	resp.Result = DecodeResult(doc.Get("result"))
	if msg := doc.Get("message"); msg.Exists() && msg.Type != gjson.Null {
		if msg.Type == gjson.String {
			resp.Message = msg.Str
		} else {
			resp.Message = msg.Raw
		}
	}
	return resp
}

// Display is a shorthand for the decoded result's display value.
func (r *GatewayResponse) Display() string {
	if r == nil {
		return ""
	}
	return r.Result.Display()
}
