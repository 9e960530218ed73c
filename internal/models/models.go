package models

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&Variation{},
		&User{},
		&Cart{},
		&CartItem{},
		&Payment{},
		&Order{},
		&OrderedProduct{},
		&ReviewRating{},
	}
}
