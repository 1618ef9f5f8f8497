package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveGatewayCall(t *testing.T) {
	before := testutil.ToFloat64(gatewayCalls.WithLabelValues("Claim", "invoke", OutcomeOK))
	ObserveGatewayCall("Claim", "invoke", OutcomeOK, 20*time.Millisecond)
	after := testutil.ToFloat64(gatewayCalls.WithLabelValues("Claim", "invoke", OutcomeOK))
	assert.Equal(t, before+1, after)
}

func TestSetInFlight(t *testing.T) {
	SetInFlight("airdrop", 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(viewInFlight.WithLabelValues("airdrop")))
	SetInFlight("airdrop", 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(viewInFlight.WithLabelValues("airdrop")))
}

func TestInstrumentHandler(t *testing.T) {
	h := InstrumentHandler("/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/teapot", "418")))

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), "kalpdemo_http_requests_total")
}
