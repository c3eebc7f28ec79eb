package models

const (
	OrderStatusProcessing       = "Processing"
	OrderStatusShipped          = "Shipped"
	OrderStatusPartiallyShipped = "Partially Shipped"
	OrderStatusCancelled        = "Cancelled"
)

// OrderRecord is a prompt-ready snapshot of a store order.
type OrderRecord struct {
	OrderNumber     string           `json:"order_number"`
	OrderID         int64            `json:"order_id"`
	Status          string           `json:"status"`
	CreatedAt       string           `json:"created_at"`
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email"`
	Total           string           `json:"total"`
	Items           []LineItem       `json:"items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Tracking        *Tracking        `json:"tracking,omitempty"`
	Note            string           `json:"note,omitempty"`
	Tags            string           `json:"tags,omitempty"`
	FinancialStatus string           `json:"financial_status"`
}

type LineItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Variant  string `json:"variant,omitempty"`
}

type ShippingAddress struct {
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

type Tracking struct {
	Number  string `json:"number"`
	Carrier string `json:"carrier"`
	URL     string `json:"url"`
}

// CustomerRecord summarizes a customer and up to three recent orders.
type CustomerRecord struct {
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	TotalOrders  int            `json:"total_orders"`
	TotalSpent   string         `json:"total_spent"`
	CreatedAt    string         `json:"created_at"`
	Tags         string         `json:"tags,omitempty"`
	RecentOrders []*OrderRecord `json:"recent_orders"`
}
