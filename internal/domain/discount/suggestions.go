package discount

import "shopcart/internal/domain/model"

// Suggestion は管理画面向けの割引種別の説明。
type Suggestion struct {
	Type           model.DiscountType `json:"type"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	RequiredFields []string           `json:"required_fields"`
	Example        string             `json:"example"`
	UseCase        string             `json:"use_case"`
}

// Suggestions は種別ごとの説明を DiscountTypes() の順で返す。
func Suggestions() []Suggestion {
	return []Suggestion{
		{
			Type:           model.DiscountTypeFixedAmount,
			Name:           "Fixed Amount Discount",
			Description:    "Fixed amount off the cart subtotal, never more than the subtotal",
			RequiredFields: []string{"fixed_amount"},
			Example:        "10.00 off orders over 50.00",
			UseCase:        "Cart-wide discounts",
		},
		{
			Type:           model.DiscountTypePercentCategory,
			Name:           "Category Percentage Discount",
			Description:    "Percentage off every item in a category",
			RequiredFields: []string{"category_id", "percentage"},
			Example:        "50% off all jackets",
			UseCase:        "Seasonal sales, category promotions",
		},
		{
			Type:           model.DiscountTypePercentProduct,
			Name:           "Product Percentage Discount",
			Description:    "Percentage off a specific product",
			RequiredFields: []string{"product_id", "percentage"},
			Example:        "20% off a specific T-shirt",
			UseCase:        "Product-specific promotions",
		},
		{
			Type:           model.DiscountTypeBOGO,
			Name:           "Buy One Get One",
			Description:    "Every second unit of a matching line is free",
			RequiredFields: []string{"product_id OR category_id"},
			Example:        "Buy 1 T-shirt, get 1 free",
			UseCase:        "Inventory clearance, promoting specific products",
		},
		{
			Type:           model.DiscountTypeTwoForOne,
			Name:           "Two for One Price",
			Description:    "Pay for one of every two matching units",
			RequiredFields: []string{"product_id OR category_id"},
			Example:        "Buy 2 shoes, pay for 1",
			UseCase:        "Bulk sales, encouraging larger purchases",
		},
		{
			Type:           model.DiscountTypeBuyXGetY,
			Name:           "Buy X Get Y",
			Description:    "Buy a threshold quantity, receive a quantity free per eligible set",
			RequiredFields: []string{"buy_quantity", "get_quantity", "product_id OR category_id"},
			Example:        "Buy 3, get 1 free",
			UseCase:        "Complex promotional offers",
		},
	}
}
