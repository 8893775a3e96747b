package redis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/application/ports"
)

func TestEventoIdaYVuelta(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	payload, err := encodeEvent(ports.ChangeEvent{CompanyID: "c-1", ProductIDs: []string{"a", "b"}, At: at})
	require.NoError(t, err)

	ev, err := decodeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "c-1", ev.CompanyID)
	assert.Equal(t, []string{"a", "b"}, ev.ProductIDs)
	assert.True(t, at.Equal(ev.At))
}

func TestDecodeEvent_Invalido(t *testing.T) {
	_, err := decodeEvent("no es json")
	assert.Error(t, err)

	_, err = decodeEvent(`{"product_ids":["a"]}`)
	assert.Error(t, err, "sin empresa no se puede enrutar")
}

func TestDecodeSummary(t *testing.T) {
	s, err := decodeSummary([]byte(`{"product_count":3,"total_stock":"12.5","low_stock":[{"product_id":"p","name":"Sal","available":"1","threshold":"2"}],"date_label":"Febrero 2026"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, s.ProductCount)
	assert.True(t, s.TotalStock.Equal(decimal.RequireFromString("12.5")))
	require.Len(t, s.LowStock, 1)
	assert.Equal(t, "Sal", s.LowStock[0].Name)
	assert.Equal(t, "Febrero 2026", s.DateLabel)

	_, err = decodeSummary([]byte("{"))
	assert.Error(t, err)
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "inventario:dashboard:summary:c-1", summaryKey("c-1"))
}
