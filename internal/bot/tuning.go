package bot

// Tuning holds the thresholds the money strategies buy by.
type Tuning struct {
	// DuchyAt buys Duchies once this many Provinces or fewer remain.
	DuchyAt int
	// EstateAt buys Estates once this many Provinces or fewer remain.
	EstateAt int
	// GoldBeforeProvince delays the first Province until this many Golds are owned.
	GoldBeforeProvince int
	// SmithyPer allows one Smithy per this many owned cards.
	SmithyPer   int
	MaxSmithies int
}

// DefaultTuning is a plain Big Money endgame.
var DefaultTuning = Tuning{
	DuchyAt:            4,
	EstateAt:           2,
	GoldBeforeProvince: 0,
	SmithyPer:          11,
	MaxSmithies:        2,
}
