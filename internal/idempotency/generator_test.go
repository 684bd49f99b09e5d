package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyIsStableAcrossParamOrder(t *testing.T) {
	g := NewGenerator()

	a := g.GenerateKey(ScopePayment, map[string]interface{}{"invoice_id": "inv_1", "reference": "r-1"})
	b := g.GenerateKey(ScopePayment, map[string]interface{}{"reference": "r-1", "invoice_id": "inv_1"})

	assert.Equal(t, a, b)
	assert.Contains(t, a, "payment-")
}

func TestGenerateKeyDiffersByScopeAndParams(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{"reference": "r-1"}

	assert.NotEqual(t, g.GenerateKey(ScopePayment, params), g.GenerateKey(Scope("refund"), params))
	assert.NotEqual(t,
		g.GenerateKey(ScopePayment, map[string]interface{}{"reference": "r-1"}),
		g.GenerateKey(ScopePayment, map[string]interface{}{"reference": "r-2"}))
}
