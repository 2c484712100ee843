package model

import "errors"

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const (
	PlaceholderShopInstanceID = "PLACEHOLDER_SHOP_INSTANCE_ID"

	ErrInternalServerMessage    = "internal server error"
	ErrRunsNotFoundMessage      = "no sync runs recorded"
	ErrRunNotFoundMessage       = "sync run not found"
	ErrInvalidRunIDMessage      = "invalid sync run id"
	ErrInvalidLimitMessage      = "limit must be a number between 1 and 100"
	ErrRunAlreadyQueuedMessage  = "a sync run is already queued"
	ErrLedgerUnavailableMessage = "run ledger unavailable"

	ErrMissingFieldMessage        = "Missing required field: %s"
	ErrNoOrderItemsMessage        = "No order items in payload"
	ErrItemMissingSKUMessage      = "Item %d: Missing SKU"
	ErrItemInvalidQuantityMessage = "Item %d: Invalid quantity"
	ErrMissingShippingMessage     = "Missing shipping address"
	ErrPlaceholderShopIDMessage   = "shop_instance_id contains placeholder value - configure EVERSTOX_SHOP_ID"

	ReasonNoFulfillableItems = "No fulfillable items remaining"
)

var (
	ErrRunsNotFound = errors.New(ErrRunsNotFoundMessage)
	ErrRunNotFound  = errors.New(ErrRunNotFoundMessage)

	ErrDryRun         = errors.New("cannot execute prepared request in dry-run mode")
	ErrInvalidRequest = errors.New("cannot execute invalid request")
	ErrAlreadyHandled = errors.New("prepared request already executed")
)
