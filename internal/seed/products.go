package seed

// SeedCategory describes a category to ensure before product ingest.
type SeedCategory struct {
	Name        string
	Slug        string
	Description string
}

// SeedProduct describes one product of the built-in seed catalog.
type SeedProduct struct {
	Name         string
	Brand        string
	Description  string
	Price        float64
	CategorySlug string
	ImageURL     string
}

// Categories is the built-in category set.
var Categories = []SeedCategory{
	{Name: "Footwear", Slug: "footwear", Description: "Shoes, sneakers, and boots for every occasion"},
	{Name: "Electronics", Slug: "electronics", Description: "Headphones, speakers, and personal gadgets"},
	{Name: "Home & Kitchen", Slug: "home-kitchen", Description: "Appliances and essentials for the home"},
	{Name: "Sports & Outdoors", Slug: "sports-outdoors", Description: "Gear for training, hiking, and outdoor activities"},
}

// Products is the built-in product set, keyed into Categories by slug.
var Products = []SeedProduct{
	{
		Name:         "Red Sneakers",
		Brand:        "Stride",
		Description:  "Classic low-top sneakers in bright red canvas with white rubber soles and cotton laces.",
		Price:        40,
		CategorySlug: "footwear",
		ImageURL:     "https://images.example.com/products/red-sneakers.png",
	},
	{
		Name:         "Trail Running Shoes",
		Brand:        "Stride",
		Description:  "Lightweight trail running shoes with aggressive lugs, rock plate, and breathable mesh upper.",
		Price:        95,
		CategorySlug: "footwear",
		ImageURL:     "https://images.example.com/products/trail-runners.png",
	},
	{
		Name:         "Leather Chelsea Boots",
		Brand:        "Harmon",
		Description:  "Brown full-grain leather Chelsea boots with elastic side panels and stacked heel.",
		Price:        160,
		CategorySlug: "footwear",
		ImageURL:     "https://images.example.com/products/chelsea-boots.png",
	},
	{
		Name:         "Wireless Noise-Cancelling Headphones",
		Brand:        "Aurel",
		Description:  "Over-ear Bluetooth headphones with active noise cancellation, 30-hour battery, and USB-C charging.",
		Price:        199,
		CategorySlug: "electronics",
		ImageURL:     "https://images.example.com/products/nc-headphones.png",
	},
	{
		Name:         "Portable Bluetooth Speaker",
		Brand:        "Aurel",
		Description:  "Compact waterproof speaker with 360-degree sound, 12-hour battery, and carabiner loop.",
		Price:        59,
		CategorySlug: "electronics",
		ImageURL:     "https://images.example.com/products/bt-speaker.png",
	},
	{
		Name:         "Pour-Over Coffee Kettle",
		Brand:        "Kopp",
		Description:  "Stainless steel gooseneck kettle with built-in thermometer for precise pour-over brewing.",
		Price:        45,
		CategorySlug: "home-kitchen",
		ImageURL:     "https://images.example.com/products/gooseneck-kettle.png",
	},
	{
		Name:         "Cast Iron Skillet",
		Brand:        "Kopp",
		Description:  "Pre-seasoned 10-inch cast iron skillet with pour spouts and helper handle.",
		Price:        32,
		CategorySlug: "home-kitchen",
		ImageURL:     "https://images.example.com/products/cast-iron-skillet.png",
	},
	{
		Name:         "Insulated Water Bottle",
		Brand:        "Peakline",
		Description:  "Double-wall vacuum insulated bottle, 750ml, keeps drinks cold 24 hours or hot 12 hours.",
		Price:        28,
		CategorySlug: "sports-outdoors",
		ImageURL:     "https://images.example.com/products/water-bottle.png",
	},
	{
		Name:         "Two-Person Backpacking Tent",
		Brand:        "Peakline",
		Description:  "Three-season freestanding tent with aluminum poles, two doors, and a packed weight under two kilograms.",
		Price:        249,
		CategorySlug: "sports-outdoors",
		ImageURL:     "https://images.example.com/products/backpacking-tent.png",
	},
}
