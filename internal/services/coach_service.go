package services

import (
	"fmt"
	"strings"

	"github.com/vitaup/VitaUpBack/internal/models"
)

const DefaultDisplayName = "Campeão(a)"

// DisplayName is the name screens greet the user with.
func DisplayName(profile *models.UserProfile) string {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return DefaultDisplayName
	}
	return strings.TrimSpace(profile.Name)
}

// CoachService serves the coach chat. Replies are fixed copy; nothing is
// generated.
type CoachService struct{}

func NewCoachService() *CoachService {
	return &CoachService{}
}

func (s *CoachService) Messages(profile *models.UserProfile) []models.CoachMessage {
	name := DisplayName(profile)
	return []models.CoachMessage{
		{Role: "coach", Content: fmt.Sprintf("Bom dia, %s! 🌅 Você dormiu bem, mas pode melhorar. Que tal tentar dormir 20 minutos mais cedo hoje?", name)},
		{Role: "user", Content: "Oi CoachUp! Como está meu progresso?"},
		{Role: "coach", Content: "Tá arrasando! 🔥 Você treinou 4 dias essa semana e manteve as calorias no alvo. Só falta beber mais água, campeã!"},
		{Role: "coach", Content: "Dica do dia: Que tal adicionar mais proteína no café da manhã? Vai te dar mais energia! 💪"},
	}
}

// DailyMission is the mission card on the home screen.
func (s *CoachService) DailyMission() string {
	return "Beba 2L de água hoje"
}
