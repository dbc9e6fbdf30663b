package models

type PlanFeature struct {
	Text     string `json:"text"`
	Included bool   `json:"included"`
}

type Plan struct {
	Type         string        `json:"type"`
	Name         string        `json:"name"`
	Tagline      string        `json:"tagline"`
	PriceCents   int           `json:"price_cents"`
	Currency     string        `json:"currency"`
	BillingCycle string        `json:"billing_cycle"`
	Highlighted  bool          `json:"highlighted"`
	Features     []PlanFeature `json:"features"`
}

type CoachMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
