package shopify

import (
	"strings"
	"time"
)

const PageSize = 50

// OrdersQuery requests one page of orders with every field the transformer reads.
const OrdersQuery = `
query FetchOrders($first: Int!, $cursor: String, $query: String!) {
  orders(first: $first, after: $cursor, query: $query) {
    pageInfo {
      hasNextPage
      endCursor
    }
    edges {
      node {
        id
        name
        createdAt
        displayFinancialStatus
        displayFulfillmentStatus
        tags
        email
        currencyCode
        totalPriceSet { shopMoney { amount currencyCode } }
        totalTaxSet { shopMoney { amount currencyCode } }
        shippingLine {
          title
          originalPriceSet { shopMoney { amount currencyCode } }
          taxLines { rate priceSet { shopMoney { amount } } }
        }
        shippingAddress { ...AddressFields }
        billingAddress { ...AddressFields }
        lineItems(first: 100) {
          edges {
            node {
              id
              sku
              name
              quantity
              fulfillableQuantity
              originalUnitPriceSet { shopMoney { amount currencyCode } }
              discountedUnitPriceSet { shopMoney { amount currencyCode } }
              taxLines { rate priceSet { shopMoney { amount } } }
            }
          }
        }
      }
    }
  }
}

fragment AddressFields on MailingAddress {
  firstName
  lastName
  company
  address1
  address2
  city
  province
  provinceCode
  country
  countryCodeV2
  zip
  phone
}
`

// BuildOrdersFilter returns the search expression for paid orders created in the
// last lookbackDays that still have something to fulfill.
func BuildOrdersFilter(lookbackDays int, now time.Time) string {
	cutoff := now.UTC().AddDate(0, 0, -lookbackDays)

	return strings.Join([]string{
		"created_at:>=" + cutoff.Format("2006-01-02"),
		"financial_status:paid",
		"(fulfillment_status:unfulfilled OR fulfillment_status:partial)",
	}, " AND ")
}
