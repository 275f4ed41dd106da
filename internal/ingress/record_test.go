package ingress

import (
	"testing"

	"driftbook/internal/common"

	"github.com/stretchr/testify/assert"
)

func TestParseNewOrder(t *testing.T) {
	p := NewParser()
	rec, err := p.Parse([]string{"N", "1", "IBM", "10", "100", "B", "1"})
	assert.NoError(t, err)
	assert.Equal(t, KindNewOrder, rec.Kind)
	assert.Equal(t, common.NewOrder{
		User: 1, Symbol: "IBM", Price: 10, Qty: 100,
		Side: common.Buy, UserOrderID: 1, TimeReceived: 1,
	}, rec.NewOrder)

	rec2, err := p.Parse([]string{"N", "2", "IBM", "11", "50", "S", "2"})
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), rec2.NewOrder.TimeReceived, "arrival counter must advance monotonically")
}

func TestParseNewOrderWrongFieldCount(t *testing.T) {
	p := NewParser()
	_, err := p.Parse([]string{"N", "1", "IBM", "10", "100", "B"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseNewOrderNonNumeric(t *testing.T) {
	p := NewParser()
	_, err := p.Parse([]string{"N", "nope", "IBM", "10", "100", "B", "1"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseNewOrderZeroQtyIsFatalAtParse(t *testing.T) {
	p := NewParser()
	_, err := p.Parse([]string{"N", "1", "IBM", "10", "0", "B", "1"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseCancelOrder(t *testing.T) {
	p := NewParser()
	rec, err := p.Parse([]string{"C", "1", "1"})
	assert.NoError(t, err)
	assert.Equal(t, KindCancelOrder, rec.Kind)
	assert.Equal(t, common.CancelOrder{User: 1, UserOrderID: 1}, rec.CancelOrder)
}

func TestParseCancelOrderWrongFieldCount(t *testing.T) {
	p := NewParser()
	_, err := p.Parse([]string{"C", "1"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseFlush(t *testing.T) {
	p := NewParser()
	rec, err := p.Parse([]string{"F"})
	assert.NoError(t, err)
	assert.Equal(t, KindFlush, rec.Kind)
}

func TestParseNameAndDescrPassthrough(t *testing.T) {
	p := NewParser()

	rec, err := p.Parse([]string{"#name: scenario a"})
	assert.NoError(t, err)
	assert.Equal(t, "#name: scenario a", rec.Line)

	rec, err = p.Parse([]string{"#descr: part one", "part two"})
	assert.NoError(t, err)
	assert.Equal(t, "#descr: part one,part two", rec.Line)

	rec, err = p.Parse([]string{"#descr: alone"})
	assert.NoError(t, err)
	assert.Equal(t, "#descr: alone", rec.Line)
}

func TestParseIgnoresUnknownRecords(t *testing.T) {
	p := NewParser()
	rec, err := p.Parse([]string{"Z", "whatever"})
	assert.NoError(t, err)
	assert.Equal(t, KindIgnore, rec.Kind)
}

func TestParseEmptyRecord(t *testing.T) {
	p := NewParser()
	rec, err := p.Parse(nil)
	assert.NoError(t, err)
	assert.Equal(t, KindIgnore, rec.Kind)
}
