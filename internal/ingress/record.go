// Package ingress adapts the outside world (CSV transaction records, a
// reader/writer goroutine pair, stdout) to the matching engine in
// internal/engine. Nothing here is part of the core: it is a thin
// boundary layer, as spec'd.
package ingress

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"driftbook/internal/common"
)

// ErrMalformedRecord is returned for N/C records with the wrong field
// count or a non-numeric value where a number is required. It is a
// fatal, boundary-level error: the core never sees the record.
var ErrMalformedRecord = errors.New("malformed record")

// RecordKind classifies one parsed CSV record.
type RecordKind int

const (
	KindIgnore RecordKind = iota
	KindPassthrough
	KindNewOrder
	KindCancelOrder
	KindFlush
)

// Record is the parsed form of one CSV row.
type Record struct {
	Kind        RecordKind
	Line        string // for KindPassthrough
	NewOrder    common.NewOrder
	CancelOrder common.CancelOrder
}

// Parser turns trimmed CSV fields into Records. It owns the monotonic
// arrival counter assigned to each accepted New-Order request — spec §9
// requires this to be a counter, never wall-clock, so that two orders
// can never compare equal in arrival order.
type Parser struct {
	arrival uint64
}

// NewParser returns a Parser with its arrival counter at zero.
func NewParser() *Parser {
	return &Parser{}
}

// Parse classifies and, for N/C records, fully decodes one CSV row. The
// caller is expected to have already whitespace-trimmed every field in
// fields (per spec §6: "Fields are whitespace-trimmed").
func (p *Parser) Parse(fields []string) (Record, error) {
	if len(fields) == 0 {
		return Record{Kind: KindIgnore}, nil
	}

	switch first := fields[0]; {
	case strings.HasPrefix(first, "#name: "):
		return Record{Kind: KindPassthrough, Line: strings.Join(fields, ",")}, nil

	case strings.HasPrefix(first, "#descr:"):
		line := first
		if len(fields) > 1 {
			line = first + "," + fields[1]
		}
		return Record{Kind: KindPassthrough, Line: line}, nil

	case first == "N":
		return p.parseNewOrder(fields)

	case first == "C":
		return p.parseCancelOrder(fields)

	case first == "F":
		return Record{Kind: KindFlush}, nil

	default:
		return Record{Kind: KindIgnore}, nil
	}
}

// parseNewOrder decodes "N, user, symbol, price, qty, side, user_order_id".
func (p *Parser) parseNewOrder(fields []string) (Record, error) {
	if len(fields) != 7 {
		return Record{}, fmt.Errorf("%w: new order %q has %d fields, want 7", ErrMalformedRecord, strings.Join(fields, ","), len(fields))
	}

	user, err := parseUint(fields[1], "user")
	if err != nil {
		return Record{}, err
	}
	symbol := fields[2]
	price, err := parseUint(fields[3], "price")
	if err != nil {
		return Record{}, err
	}
	qty, err := parseUint(fields[4], "qty")
	if err != nil {
		return Record{}, err
	}
	if qty == 0 {
		return Record{}, fmt.Errorf("%w: new order qty must be non-zero", ErrMalformedRecord)
	}
	if fields[5] == "" {
		return Record{}, fmt.Errorf("%w: new order side must not be empty", ErrMalformedRecord)
	}
	side := common.Side(fields[5][0])
	userOrderID, err := parseUint(fields[6], "user_order_id")
	if err != nil {
		return Record{}, err
	}

	p.arrival++
	return Record{
		Kind: KindNewOrder,
		NewOrder: common.NewOrder{
			User: user, Symbol: symbol, Price: price, Qty: qty,
			Side: side, UserOrderID: userOrderID, TimeReceived: p.arrival,
		},
	}, nil
}

// parseCancelOrder decodes "C, user, user_order_id".
func (p *Parser) parseCancelOrder(fields []string) (Record, error) {
	if len(fields) != 3 {
		return Record{}, fmt.Errorf("%w: cancel order %q has %d fields, want 3", ErrMalformedRecord, strings.Join(fields, ","), len(fields))
	}

	user, err := parseUint(fields[1], "user")
	if err != nil {
		return Record{}, err
	}
	userOrderID, err := parseUint(fields[2], "user_order_id")
	if err != nil {
		return Record{}, err
	}

	return Record{
		Kind:        KindCancelOrder,
		CancelOrder: common.CancelOrder{User: user, UserOrderID: userOrderID},
	}, nil
}

func parseUint(raw, field string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a valid unsigned integer: %v", ErrMalformedRecord, field, raw, err)
	}
	return v, nil
}
