package entity

import "time"

type FulfillmentStatus string

const (
	StatusPending    FulfillmentStatus = "pending"
	StatusProcessing FulfillmentStatus = "processing"
	StatusShipped    FulfillmentStatus = "shipped"
	StatusDelivered  FulfillmentStatus = "delivered"
	StatusCancelled  FulfillmentStatus = "cancelled"
)

func (s FulfillmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Shipping policy. The threshold is a USD-denominated constant; orders are
// priced and settled in USD even though transactions carry a currency field.
const (
	FreeShippingThreshold = 39.00
	FlatShippingCost      = 5.99
)

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	ZipCode   string `json:"zip_code"`
	Phone     string `json:"phone,omitempty"`
}

func (a ShippingAddress) Complete() bool {
	return a.FirstName != "" && a.LastName != "" && a.Address != "" && a.City != "" && a.ZipCode != ""
}

// OrderItem is a snapshot of the product at order-creation time. Catalog
// edits after the order is placed must not change these rows.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

type Order struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id,omitempty"` // empty for guest checkout
	Email           string            `json:"email"`
	ShippingAddress ShippingAddress   `json:"shipping_address"`
	Items           []OrderItem       `json:"items"`
	Subtotal        float64           `json:"subtotal"`
	ShippingCost    float64           `json:"shipping_cost"`
	Total           float64           `json:"total"`
	Status          FulfillmentStatus `json:"status"`
	Paid            bool              `json:"paid"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ContainsProduct reports whether the order has a line item for the product.
func (o *Order) ContainsProduct(productID string) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// Product is the slice of the catalog the order/review paths need.
// Catalog CRUD lives in another service.
type Product struct {
	ID    string  `json:"id"`
	Slug  string  `json:"slug"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
