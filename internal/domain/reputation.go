package domain

const (
	// MinCircleRatings es el piso de muestras para declarar el sentimiento
	// de un círculo.
	MinCircleRatings = 5

	// PositiveThresholdPct evita que el empate 50/50 resuelva positivo.
	PositiveThresholdPct = 51.0
)

const (
	CircleStatusNeutral  = "neutral"
	CircleStatusPositive = "positive"
	CircleStatusNegative = "negative"
)

// AggregateCell es la estadística derivada para un (ratee, circle, trait).
// Es una caché: siempre reconstruible desde el ledger de ratings.
type AggregateCell struct {
	Sum           int `json:"sum"`
	Count         int `json:"count"`
	PositiveCount int `json:"positive_count"`
	NegativeCount int `json:"negative_count"`
}

// Apply incorpora un rating al cell de forma incremental.
func (c *AggregateCell) Apply(value int) {
	c.Sum += value
	c.Count++
	if value > 0 {
		c.PositiveCount++
	}
	if value < 0 {
		c.NegativeCount++
	}
}

// Average devuelve sum/count, o 0 sin muestras.
func (c AggregateCell) Average() float64 {
	if c.Count == 0 {
		return 0
	}
	return float64(c.Sum) / float64(c.Count)
}

// TraitScore es una fila del ranking de rasgos de un usuario.
type TraitScore struct {
	Trait         Trait   `json:"trait"`
	Average       float64 `json:"average"`
	Count         int     `json:"count"`
	PositiveCount int     `json:"positive_count"`
	NegativeCount int     `json:"negative_count"`
}

// CircleStatus clasifica el sentimiento de un círculo hacia un usuario.
type CircleStatus struct {
	CircleID           string  `json:"circle_id"`
	HasEnoughRatings   bool    `json:"has_enough_ratings"`
	PositivePercentage float64 `json:"positive_percentage"`
	Status             string  `json:"status"`
}

// ReputationSummary es la vista completa que se muestra al calificado.
type ReputationSummary struct {
	RankedTraits      []TraitScore            `json:"ranked_traits"`
	TopPositiveTraits []Trait                 `json:"top_positive_traits"`
	CircleStatuses    map[string]CircleStatus `json:"circle_statuses"`
}
