package domain

import (
	"strconv"
	"strings"
)

const gidPrefix = "gid://shopify/"

// NormalizeGID promotes a numeric id to a Shopify global id of the given
// resource type. Ids already in gid form are returned unchanged.
func NormalizeGID(resource, id string) string {
	id = strings.TrimSpace(id)
	if id == "" || strings.HasPrefix(id, gidPrefix) {
		return id
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return id
	}
	return gidPrefix + resource + "/" + id
}

// ProductGID normalizes a product id
func ProductGID(id string) string {
	return NormalizeGID("Product", id)
}

// VariantGID normalizes a product variant id
func VariantGID(id string) string {
	return NormalizeGID("ProductVariant", id)
}

// InventoryItemGID builds the global id of an inventory item
func InventoryItemGID(id int64) string {
	return gidPrefix + "InventoryItem/" + strconv.FormatInt(id, 10)
}
