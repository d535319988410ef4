package orders

type Status string

const (
	StatusOpen      Status = "OPEN"
	StatusCheckout  Status = "CHECKOUT"
	StatusPaid      Status = "PAID"
	StatusShipped   Status = "SHIPPED"
	StatusCancelled Status = "CANCELLED"
)

var validNext = map[Status]map[Status]bool{
	StatusOpen:      {StatusCheckout: true, StatusPaid: true, StatusCancelled: true},
	StatusCheckout:  {StatusPaid: true, StatusCancelled: true},
	StatusPaid:      {StatusShipped: true},
	StatusShipped:   {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
