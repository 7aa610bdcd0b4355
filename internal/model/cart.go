package model

// CartLine is a single product entry in the customer's cart.
type CartLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// Total returns the line total.
func (c CartLine) Total() float64 {
	return float64(c.Quantity) * c.UnitPrice
}
