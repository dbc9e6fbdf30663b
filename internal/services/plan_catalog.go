package services

import "github.com/vitaup/VitaUpBack/internal/models"

type PlanCatalog struct {
	plans []models.Plan
}

func NewPlanCatalog() *PlanCatalog {
	return &PlanCatalog{plans: []models.Plan{
		{
			Type:         models.PlanFree,
			Name:         "VitaUp Free",
			Tagline:      "Para começar sua jornada",
			PriceCents:   0,
			Currency:     "BRL",
			BillingCycle: "month",
			Features: []models.PlanFeature{
				{Text: "Contagem básica de calorias", Included: true},
				{Text: "Registro de água e passos", Included: true},
				{Text: "Algumas receitas gratuitas", Included: true},
				{Text: "Diário de treino limitado", Included: true},
				{Text: "Relatório simples de sono", Included: true},
				{Text: "1 recomendação/dia do CoachUp", Included: true},
				{Text: "Dieta personalizada por IA"},
				{Text: "Treinos personalizados"},
				{Text: "Gamificação completa"},
				{Text: "CoachUp ilimitado"},
			},
		},
		{
			Type:         models.PlanPremium,
			Name:         "VitaUp+",
			Tagline:      "Experiência completa",
			PriceCents:   2990,
			Currency:     "BRL",
			BillingCycle: "month",
			Highlighted:  true,
			Features: []models.PlanFeature{
				{Text: "Dieta personalizada por IA", Included: true},
				{Text: "Treinos personalizados", Included: true},
				{Text: "Ajuste automático de calorias", Included: true},
				{Text: "Relatórios completos de sono", Included: true},
				{Text: "Acesso total às receitas", Included: true},
				{Text: "CoachUp ilimitado", Included: true},
				{Text: "Gamificação completa", Included: true},
				{Text: "Avatar personalizável", Included: true},
				{Text: "Desafios semanais", Included: true},
				{Text: "Insights de humor e energia", Included: true},
			},
		},
	}}
}

func (c *PlanCatalog) List() []models.Plan {
	out := make([]models.Plan, len(c.plans))
	copy(out, c.plans)
	return out
}

func (c *PlanCatalog) Get(planType string) (models.Plan, bool) {
	for _, plan := range c.plans {
		if plan.Type == planType {
			return plan, true
		}
	}
	return models.Plan{}, false
}
