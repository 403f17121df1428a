package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VariantDetail is the display metadata of a catalog variant.
type VariantDetail struct {
	VariantID   string          `json:"variantId"`
	ModelName   string          `json:"modelName"`
	VersionName string          `json:"versionName"`
	Color       string          `json:"color"`
	SKU         string          `json:"skuCode"`
	Price       decimal.Decimal `json:"price"`
}

// DisplayName renders "Model Version - Color", skipping empty parts.
func (v VariantDetail) DisplayName() string {
	name := strings.TrimSpace(v.ModelName + " " + v.VersionName)
	if name == "" {
		name = "#" + v.VariantID
	}
	if v.Color != "" {
		name += " - " + v.Color
	}
	return name
}
