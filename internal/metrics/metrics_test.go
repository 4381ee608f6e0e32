package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestIncPricing(t *testing.T) {
	before := testutil.ToFloat64(PricingRequestsTotal.WithLabelValues("model", "ok"))
	IncPricing("model", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(PricingRequestsTotal.WithLabelValues("model", "ok")))
}

func TestObserveDuration_IgnoresCounters(t *testing.T) {
	assert.NotPanics(t, func() {
		ObserveDuration(PricingRequestsTotal, time.Now(), "model", "ok")
		ObserveDuration(PricingDuration, time.Now().Add(-time.Millisecond), "model")
	})
	assert.Equal(t, 1, testutil.CollectAndCount(PricingDuration))
}
