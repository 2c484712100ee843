package model

type FinancialStatus string

const (
	FinancialStatusPaid              FinancialStatus = "paid"
	FinancialStatusPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialStatusPending           FinancialStatus = "pending"
	FinancialStatusAuthorized        FinancialStatus = "authorized"
	FinancialStatusPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialStatusRefunded          FinancialStatus = "refunded"
	FinancialStatusVoided            FinancialStatus = "voided"
	FinancialStatusUnknown           FinancialStatus = "unknown"
)

// Payload is the order body accepted by the fulfillment provider.
type Payload struct {
	ShopInstanceID       string          `json:"shop_instance_id"`
	OrderNumber          string          `json:"order_number"`
	OrderDate            string          `json:"order_date"`
	FinancialStatus      FinancialStatus `json:"financial_status"`
	OrderPriority        int             `json:"order_priority"`
	Currency             string          `json:"currency"`
	CustomerEmail        string          `json:"customer_email"`
	ShippingAddress      *Address        `json:"shipping_address"`
	BillingAddress       *Address        `json:"billing_address"`
	Shipping             *Shipping       `json:"shipping"`
	OrderItems           []OrderItem     `json:"order_items"`
	OrderTotals          OrderTotals     `json:"order_totals"`
	PaymentMethodID      *string         `json:"payment_method_id"`
	RequestedWarehouseID *string         `json:"requested_warehouse_id"`
	ExternalID           string          `json:"external_id"`
	Tags                 []string        `json:"tags"`
}

type Address struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company"`
	Street      string `json:"street"`
	Street2     string `json:"street_2"`
	City        string `json:"city"`
	State       string `json:"state"`
	CountryCode string `json:"country_code"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
}

type Shipping struct {
	Method     string  `json:"method"`
	PriceGross float64 `json:"price_gross"`
	TaxRate    float64 `json:"tax_rate"`
}

type Product struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

type OrderItem struct {
	Product    Product `json:"product"`
	Quantity   int     `json:"quantity"`
	PriceGross float64 `json:"price_gross"`
	PriceNet   float64 `json:"price_net"`
	TaxRate    float64 `json:"tax_rate"`
	ExternalID string  `json:"external_id"`
}

type OrderTotals struct {
	TotalGross float64 `json:"total_gross"`
	TotalNet   float64 `json:"total_net"`
	TotalTax   float64 `json:"total_tax"`
}

// FulfillmentSummary describes how much of an order is still open.
type FulfillmentSummary struct {
	TotalLineItems           int  `json:"total_line_items"`
	TotalOrderedQuantity     int  `json:"total_ordered_quantity"`
	TotalFulfillableQuantity int  `json:"total_fulfillable_quantity"`
	FullyFulfilledItems      int  `json:"fully_fulfilled_items"`
	PartiallyFulfilledItems  int  `json:"partially_fulfilled_items"`
	IsFullyFulfilled         bool `json:"is_fully_fulfilled"`
	IsPartiallyFulfilled     bool `json:"is_partially_fulfilled"`
}
