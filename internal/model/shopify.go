package model

import (
	"github.com/shopspring/decimal"
)

// RawOrder is one order node as returned by the Shopify orders query.
// Absent scalars decode to their zero value, absent objects to nil.
type RawOrder struct {
	ID                       string             `json:"id"`
	Name                     string             `json:"name"`
	CreatedAt                string             `json:"createdAt"`
	DisplayFinancialStatus   string             `json:"displayFinancialStatus"`
	DisplayFulfillmentStatus string             `json:"displayFulfillmentStatus"`
	Tags                     []string           `json:"tags"`
	Email                    string             `json:"email"`
	CurrencyCode             string             `json:"currencyCode"`
	TotalPriceSet            *MoneyBag          `json:"totalPriceSet"`
	TotalTaxSet              *MoneyBag          `json:"totalTaxSet"`
	ShippingLine             *ShippingLine      `json:"shippingLine"`
	ShippingAddress          *MailingAddress    `json:"shippingAddress"`
	BillingAddress           *MailingAddress    `json:"billingAddress"`
	LineItems                LineItemConnection `json:"lineItems"`
}

type RawLineItem struct {
	ID                     string    `json:"id"`
	SKU                    string    `json:"sku"`
	Name                   string    `json:"name"`
	Quantity               int       `json:"quantity"`
	FulfillableQuantity    int       `json:"fulfillableQuantity"`
	OriginalUnitPriceSet   *MoneyBag `json:"originalUnitPriceSet"`
	DiscountedUnitPriceSet *MoneyBag `json:"discountedUnitPriceSet"`
	TaxLines               []TaxLine `json:"taxLines"`
}

type LineItemConnection struct {
	Edges []LineItemEdge `json:"edges"`
}

type LineItemEdge struct {
	Node RawLineItem `json:"node"`
}

// Items flattens the connection edges.
func (c LineItemConnection) Items() []RawLineItem {
	items := make([]RawLineItem, 0, len(c.Edges))
	for _, e := range c.Edges {
		items = append(items, e.Node)
	}
	return items
}

type ShippingLine struct {
	Title            string    `json:"title"`
	OriginalPriceSet *MoneyBag `json:"originalPriceSet"`
	TaxLines         []TaxLine `json:"taxLines"`
}

type TaxLine struct {
	Rate     float64   `json:"rate"`
	PriceSet *MoneyBag `json:"priceSet"`
}

// RatePercent converts the fractional rate (0.19) into a percentage (19).
func (t TaxLine) RatePercent() decimal.Decimal {
	return decimal.NewFromFloat(t.Rate).Mul(decimal.NewFromInt(100))
}

type MailingAddress struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Company      string `json:"company"`
	Address1     string `json:"address1"`
	Address2     string `json:"address2"`
	City         string `json:"city"`
	Province     string `json:"province"`
	ProvinceCode string `json:"provinceCode"`
	Country      string `json:"country"`
	CountryCode  string `json:"countryCodeV2"`
	Zip          string `json:"zip"`
	Phone        string `json:"phone"`
}

type MoneyBag struct {
	ShopMoney Money `json:"shopMoney"`
}

// Money keeps the amount as the API sends it (a decimal string) so that
// a missing or malformed value can be told apart from zero.
type Money struct {
	Amount       *string `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

// Amount returns the shop money amount, ok is false when it is absent or unparsable.
func (b *MoneyBag) Amount() (amount decimal.Decimal, ok bool) {
	if b == nil || b.ShopMoney.Amount == nil {
		return decimal.Zero, false
	}

	amount, err := decimal.NewFromString(*b.ShopMoney.Amount)
	if err != nil {
		return decimal.Zero, false
	}

	return amount, true
}
