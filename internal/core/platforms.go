package core

func init() {
	Register(PlatformDefinition{
		Key:         SF,
		Label:       "SnappFood",
		ResponseKey: "snappfood",
		Toppings:    true,
		DefaultHeaders: []string{
			"vendor_code", "snappfood_vendor_id", "vendor_name", "vendor_branch",
			"vendor_chain", "business_line", "marketing_area", "address",
			"min_order", "latitude", "longitude", "rating", "comment_count",
			"shifts", "tag_names", "is_express", "is_pro", "is_economical",
			"category_name", "item_id", "item_title", "description", "price",
			"product_toppings",
		},
		FormFields: append(commonFormFields(),
			FormField{Key: "vendor_branch"},
			FormField{Key: "vendor_chain"},
			FormField{Key: "tag_names", Kind: FieldTags},
			FormField{Key: "is_express", Kind: FieldFlag},
			FormField{Key: "is_pro", Kind: FieldFlag},
			FormField{Key: "is_economical", Kind: FieldFlag},
		),
		StickyKeys: []StickyKey{
			{Key: "snappfood_vendor_id"},
			{Key: "rating", ExportDefault: "0"},
			{Key: "comment_count", ExportDefault: "0"},
		},
	})

	Register(PlatformDefinition{
		Key:         TF,
		Label:       "TapsiFood",
		ResponseKey: "tapsifood",
		DefaultHeaders: []string{
			"vendor_code", "vendor_name", "business_line", "marketing_area",
			"address", "min_order", "latitude", "longitude", "shifts",
			"category_name", "item_id", "item_title", "item_description",
			"description", "price", "rating", "product_toppings",
		},
		FormFields: commonFormFields(),
		StickyKeys: []StickyKey{
			{Key: "tf_internal_code"},
			{Key: "rating", ExportDefault: "0"},
			{Key: "comment_count", ExportDefault: "0"},
		},
	})
}

func commonFormFields() []FormField {
	return []FormField{
		{Key: "vendor_code"},
		{Key: "vendor_name"},
		{Key: "business_line"},
		{Key: "marketing_area"},
		{Key: "address"},
		{Key: "min_order", ExportDefault: "0"},
		{Key: "latitude"},
		{Key: "longitude"},
	}
}
