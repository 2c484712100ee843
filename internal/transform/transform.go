package transform

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ibeloyar/fulfillsync/internal/filter"
	"github.com/ibeloyar/fulfillsync/internal/model"
)

const (
	DefaultCurrency       = "EUR"
	DefaultShippingMethod = "Standard"
)

var (
	hundred = decimal.NewFromInt(100)

	financialStatuses = map[string]model.FinancialStatus{
		"PAID":               model.FinancialStatusPaid,
		"PARTIALLY_PAID":     model.FinancialStatusPartiallyPaid,
		"PENDING":            model.FinancialStatusPending,
		"AUTHORIZED":         model.FinancialStatusAuthorized,
		"PARTIALLY_REFUNDED": model.FinancialStatusPartiallyRefunded,
		"REFUNDED":           model.FinancialStatusRefunded,
		"VOIDED":             model.FinancialStatusVoided,
	}
)

// Transformer maps Shopify orders onto provider payloads. Safe for concurrent use.
type Transformer struct {
	shopInstanceID string
	lg             *zap.SugaredLogger
}

func New(shopInstanceID string, lg *zap.SugaredLogger) *Transformer {
	return &Transformer{
		shopInstanceID: shopInstanceID,
		lg:             lg,
	}
}

// Transform never fails, absent source fields fall back to their defaults.
func (t *Transformer) Transform(order model.RawOrder) model.Payload {
	priority := filter.ParsePriority(order.Tags)
	items, skipped := t.lineItems(order)

	if skipped > 0 {
		t.lg.Infof("Partial fulfillment detected for order %s: %d items to fulfill, %d already fulfilled",
			order.Name, len(items), skipped)
	}

	currency := order.CurrencyCode
	if currency == "" {
		currency = DefaultCurrency
	}

	tags := order.Tags
	if tags == nil {
		tags = []string{}
	}

	payload := model.Payload{
		ShopInstanceID:  t.shopInstanceID,
		OrderNumber:     order.Name,
		OrderDate:       order.CreatedAt,
		FinancialStatus: MapFinancialStatus(order.DisplayFinancialStatus),
		OrderPriority:   priority,
		Currency:        currency,
		CustomerEmail:   order.Email,
		ShippingAddress: transformAddress(order.ShippingAddress),
		BillingAddress:  transformAddress(order.BillingAddress),
		Shipping:        transformShipping(order.ShippingLine),
		OrderItems:      items,
		OrderTotals:     orderTotals(order),
		ExternalID:      order.ID,
		Tags:            tags,
	}

	t.lg.Debugw("Order transformed", "order", order.Name, "items", len(items), "priority", priority)

	return payload
}

// TransformBatch transforms orders in input order and drops payloads with nothing left to ship.
func (t *Transformer) TransformBatch(orders []model.RawOrder) []model.Payload {
	payloads := make([]model.Payload, 0, len(orders))
	for _, order := range orders {
		payload := t.Transform(order)
		if len(payload.OrderItems) == 0 {
			t.lg.Infof("Skipping fully fulfilled order: %s", order.Name)
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

func HasFulfillableItems(order model.RawOrder) bool {
	for _, edge := range order.LineItems.Edges {
		if edge.Node.FulfillableQuantity > 0 {
			return true
		}
	}
	return false
}

func FulfillmentSummary(order model.RawOrder) model.FulfillmentSummary {
	var s model.FulfillmentSummary

	for _, item := range order.LineItems.Items() {
		s.TotalLineItems++
		s.TotalOrderedQuantity += item.Quantity
		s.TotalFulfillableQuantity += item.FulfillableQuantity

		switch {
		case item.FulfillableQuantity == 0:
			s.FullyFulfilledItems++
		case item.FulfillableQuantity < item.Quantity:
			s.PartiallyFulfilledItems++
		}
	}

	s.IsFullyFulfilled = s.TotalFulfillableQuantity == 0
	s.IsPartiallyFulfilled = s.TotalFulfillableQuantity > 0 && s.TotalFulfillableQuantity < s.TotalOrderedQuantity

	return s
}

// MapFinancialStatus normalizes displayFinancialStatus, unknown values are passed through lowercased.
func MapFinancialStatus(status string) model.FinancialStatus {
	if status == "" {
		return model.FinancialStatusUnknown
	}
	if mapped, ok := financialStatuses[strings.ToUpper(status)]; ok {
		return mapped
	}
	return model.FinancialStatus(strings.ToLower(status))
}

func (t *Transformer) lineItems(order model.RawOrder) (items []model.OrderItem, skipped int) {
	items = make([]model.OrderItem, 0, len(order.LineItems.Edges))

	for _, item := range order.LineItems.Items() {
		if item.FulfillableQuantity <= 0 {
			skipped++
			t.lg.Debugw("Skipping fully fulfilled line item", "order", order.Name, "sku", item.SKU)
			continue
		}

		gross := unitPrice(item)
		rate := firstTaxRate(item.TaxLines)

		items = append(items, model.OrderItem{
			Product: model.Product{
				SKU:  item.SKU,
				Name: item.Name,
			},
			Quantity:   item.FulfillableQuantity,
			PriceGross: gross.InexactFloat64(),
			PriceNet:   NetPrice(gross, rate).InexactFloat64(),
			TaxRate:    rate.InexactFloat64(),
			ExternalID: item.ID,
		})
	}

	return items, skipped
}

// unitPrice prefers the discounted price over the original one.
func unitPrice(item model.RawLineItem) decimal.Decimal {
	if amount, ok := item.DiscountedUnitPriceSet.Amount(); ok {
		return amount
	}
	if amount, ok := item.OriginalUnitPriceSet.Amount(); ok {
		return amount
	}
	return decimal.Zero
}

func firstTaxRate(lines []model.TaxLine) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.Zero
	}
	return lines[0].RatePercent()
}

// NetPrice removes a tax rate given in percent from a gross amount.
func NetPrice(gross, ratePercent decimal.Decimal) decimal.Decimal {
	if !ratePercent.IsPositive() {
		return gross
	}
	return gross.Div(decimal.NewFromInt(1).Add(ratePercent.Div(hundred)))
}

func transformAddress(a *model.MailingAddress) *model.Address {
	if a == nil {
		return nil
	}

	state := a.ProvinceCode
	if state == "" {
		state = a.Province
	}

	return &model.Address{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Company:     a.Company,
		Street:      a.Address1,
		Street2:     a.Address2,
		City:        a.City,
		State:       state,
		CountryCode: a.CountryCode,
		PostalCode:  a.Zip,
		Phone:       a.Phone,
	}
}

func transformShipping(line *model.ShippingLine) *model.Shipping {
	if line == nil {
		return nil
	}

	method := line.Title
	if method == "" {
		method = DefaultShippingMethod
	}

	price, _ := line.OriginalPriceSet.Amount()

	return &model.Shipping{
		Method:     method,
		PriceGross: price.InexactFloat64(),
		TaxRate:    firstTaxRate(line.TaxLines).InexactFloat64(),
	}
}

func orderTotals(order model.RawOrder) model.OrderTotals {
	gross, _ := order.TotalPriceSet.Amount()
	tax, _ := order.TotalTaxSet.Amount()

	return model.OrderTotals{
		TotalGross: gross.InexactFloat64(),
		TotalNet:   gross.Sub(tax).InexactFloat64(),
		TotalTax:   tax.InexactFloat64(),
	}
}
