package waterlog

// DrinkType describes one loggable beverage and its hydration factor.
// The factor discounts the raw volume before it counts toward the goal:
// a 300ml coffee contributes 255ml of hydration.
type DrinkType struct {
	ID     string
	Label  string
	Icon   string
	Factor float64
}

// DrinkTypes lists the supported beverages in display order.
var DrinkTypes = []DrinkType{
	{ID: "water", Label: "Water", Icon: "💧", Factor: 1.0},
	{ID: "coffee", Label: "Coffee", Icon: "☕", Factor: 0.85},
	{ID: "tea", Label: "Tea", Icon: "🍵", Factor: 0.90},
	{ID: "protein", Label: "Protein Shake", Icon: "🥤", Factor: 0.90},
	{ID: "juice", Label: "Juice", Icon: "🧃", Factor: 0.85},
}

// DefaultDrink is assumed when no drink type is given.
const DefaultDrink = "water"

// DrinkByID looks up a drink type, falling back to water for unknown ids so
// a stale client can still log.
func DrinkByID(id string) DrinkType {
	for _, d := range DrinkTypes {
		if d.ID == id {
			return d
		}
	}
	return DrinkTypes[0]
}

// EffectiveAmount applies the drink's hydration factor to a raw volume.
// Fractional milliliters floor away rather than round, so the effective
// total never exceeds what was actually absorbed.
func EffectiveAmount(rawML int, drinkID string) int {
	d := DrinkByID(drinkID)
	return int(float64(rawML) * d.Factor)
}
