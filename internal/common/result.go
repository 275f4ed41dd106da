package common

import "strconv"

// OrderResult is the closed set of events the engine emits. It is modeled
// as a sealed interface rather than an open hierarchy: sealed() is
// unexported so no type outside this package can implement OrderResult.
type OrderResult interface {
	String() string
	sealed()
}

// Acknowledgement confirms a New-Order or Cancel-Order request was accepted.
type Acknowledgement struct {
	User        uint64
	UserOrderID uint64
}

func (a Acknowledgement) sealed() {}
func (a Acknowledgement) String() string {
	return "A, " + u64(a.User) + ", " + u64(a.UserOrderID)
}

// Rejection reports a crossing New-Order request refused while trading is
// disabled.
type Rejection struct {
	User        uint64
	UserOrderID uint64
}

func (r Rejection) sealed() {}
func (r Rejection) String() string {
	return "R, " + u64(r.User) + ", " + u64(r.UserOrderID)
}

// TopOfBookChange reports that a side's best price and aggregate quantity
// changed. Price and TotalQuantity are nil iff that side has no resting
// orders, rendered as "-".
type TopOfBookChange struct {
	Side          Side
	Price         *uint64
	TotalQuantity *uint64
}

func (t TopOfBookChange) sealed() {}
func (t TopOfBookChange) String() string {
	return "B, " + t.Side.String() + ", " + optU64(t.Price) + ", " + optU64(t.TotalQuantity)
}

// Trade reports a match between an incoming order and a resting order of
// identical quantity.
type Trade struct {
	UserBuy        uint64
	UserOrderIDBuy uint64

	UserSell        uint64
	UserOrderIDSell uint64

	Price uint64
	Qty   uint64
}

func (t Trade) sealed() {}
func (t Trade) String() string {
	return "T, " + u64(t.UserBuy) + ", " + u64(t.UserOrderIDBuy) + ", " +
		u64(t.UserSell) + ", " + u64(t.UserOrderIDSell) + ", " +
		u64(t.Price) + ", " + u64(t.Qty)
}

func u64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func optU64(v *uint64) string {
	if v == nil {
		return "-"
	}
	return u64(*v)
}

// TopOfBook is an immutable snapshot of one side's best price and
// aggregate resting quantity at that price. Both fields are nil iff the
// side has no resting orders. Equality is structural.
type TopOfBook struct {
	Side          Side
	Price         *uint64
	TotalQuantity *uint64
}

// Equal reports whether two snapshots are structurally identical.
func (t TopOfBook) Equal(other TopOfBook) bool {
	if t.Side != other.Side {
		return false
	}
	if !eqOptU64(t.Price, other.Price) {
		return false
	}
	return eqOptU64(t.TotalQuantity, other.TotalQuantity)
}

func eqOptU64(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ToResult renders the snapshot as the OrderResult emitted on change.
func (t TopOfBook) ToResult() OrderResult {
	return TopOfBookChange{Side: t.Side, Price: t.Price, TotalQuantity: t.TotalQuantity}
}
