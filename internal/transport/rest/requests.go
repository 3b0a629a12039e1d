package rest

// Pointer fields let the validator tell a missing value (400) from a bad one (422).
// Quantities and deltas are capped at 1e9 so that stock arithmetic stays well inside int32.

type productCreateRequest struct {
	Name     *string `json:"name" validate:"required,min=5"`
	Quantity *int32  `json:"quantity" validate:"required,gte=1,lte=1000000000"`
}

type productUpdateRequest struct {
	Name     *string `json:"name" validate:"required,min=5"`
	Quantity *int32  `json:"quantity" validate:"required,gte=1,lte=1000000000"`
}

type stockAdjustRequest struct {
	Delta *int32 `json:"delta" validate:"required,gte=-1000000000,lte=1000000000"`
}

type saleItemRequest struct {
	ProductID int64  `json:"productId" validate:"required,gte=1"`
	Quantity  *int32 `json:"quantity" validate:"required,gte=1,lte=1000000000"`
}

// saleItemsRequest wraps the JSON array body so the list rules can be expressed as tags.
type saleItemsRequest struct {
	Items []saleItemRequest `json:"items" validate:"required,min=1,unique=ProductID,dive"`
}
