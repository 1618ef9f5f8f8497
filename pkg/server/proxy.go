package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"kalpdemo/pkg/gateway"
)

const maxProxyBody = 1 << 20

// proxyRoute is one JSON pass-through route bound to the token contract.
type proxyRoute struct {
	path       string
	httpMethod string
	method     string
	kind       gateway.Kind
	fields     []string
	failure    string
}

var proxyRoutes = []proxyRoute{
	{"initialize", http.MethodPost, "Initialize", gateway.KindInvoke, []string{"name", "symbol", "decimals"}, "Initialization failed"},
	{"mint", http.MethodPost, "Mint", gateway.KindInvoke, []string{"amount"}, "Mint failed"},
	{"transfer", http.MethodPost, "Transfer", gateway.KindInvoke, []string{"recipient", "amount"}, "Transfer failed"},
	{"totalSupply", http.MethodGet, "TotalSupply", gateway.KindQuery, nil, "Fetching total supply failed"},
}

// handleProxy forwards the request body fields as contract args and relays
// the gateway's status and body unmodified.
func (s *Server) handleProxy(route proxyRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != route.httpMethod {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
			return
		}

		args := map[string]any{}
		if len(route.fields) > 0 {
			var body map[string]json.RawMessage
			if err := json.NewDecoder(io.LimitReader(r.Body, maxProxyBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
				s.proxyFailure(w, route, err)
				return
			}
			for _, f := range route.fields {
				raw, ok := body[f]
				if !ok {
					continue
				}
				var v any
				if err := json.Unmarshal(raw, &v); err != nil {
					s.proxyFailure(w, route, err)
					return
				}
				args[f] = v
			}
		}

		resp, err := s.proxy.Call(r.Context(), gateway.Request{
			Kind:       route.kind,
			ContractID: s.proxy.ContractID(gateway.AppToken),
			Method:     route.method,
			Args:       args,
			HTTPMethod: s.proxy.HTTPMethod(route.kind),
		})

		var se *gateway.StatusError
		switch {
		case errors.As(err, &se) && json.Valid(se.Body):
			writeRaw(w, se.Status, se.Body)
		case err != nil:
			s.proxyFailure(w, route, err)
		case resp.Body == nil:
			s.proxyFailure(w, route, errors.New("gateway response is not JSON"))
		default:
			writeRaw(w, resp.Status, resp.Body)
		}
	}
}

func (s *Server) proxyFailure(w http.ResponseWriter, route proxyRoute, err error) {
	s.logger.Error("proxy call failed", "route", route.path, "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   route.failure,
		"details": err.Error(),
	})
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
