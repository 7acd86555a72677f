package query

// AggType is an SQL aggregate function.
type AggType int

const (
	Count AggType = iota + 1
	Sum
	Min
	Max
	Avg
)

func (a AggType) String() string {
	switch a {
	case Count:
		return "COUNT"
	case Sum:
		return "SUM"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Avg:
		return "AVG"
	default:
		return "UNKNOWN"
	}
}
