package domain

import "time"

type AchievementIcon string

const (
	IconTrophy AchievementIcon = "trophy"
	IconStar   AchievementIcon = "star"
	IconMedal  AchievementIcon = "medal"
	IconZap    AchievementIcon = "zap"
	IconCrown  AchievementIcon = "crown"
	IconTarget AchievementIcon = "target"
)

const (
	AchievementWelcome         = "welcome"
	AchievementFirstAssessment = "first_assessment"
	AchievementFirstGoal       = "first_goal"
	AchievementConsistencyKing = "consistency_king"
	AchievementStarStudent     = "star_student"
)

type Achievement struct {
	ID          string          `bson:"id" json:"id"`
	Title       string          `bson:"title" json:"title"`
	Description string          `bson:"description" json:"description"`
	Icon        AchievementIcon `bson:"icon" json:"icon"`
	Unlocked    bool            `bson:"unlocked" json:"unlocked"`
	UnlockedAt  *time.Time      `bson:"unlockedAt,omitempty" json:"unlockedAt,omitempty"`
}

// DefaultAchievements returns a fresh set for a new student, with the
// welcome badge already unlocked at now.
func DefaultAchievements(now time.Time) []Achievement {
	unlockedAt := now
	return []Achievement{
		{ID: AchievementWelcome, Title: "Bem-vindo ao Time", Description: "Iniciou sua jornada na ABFIT", Icon: IconMedal, Unlocked: true, UnlockedAt: &unlockedAt},
		{ID: AchievementFirstAssessment, Title: "Primeiros Passos", Description: "Realizou a primeira avaliação física", Icon: IconZap},
		{ID: AchievementFirstGoal, Title: "Foco Total", Description: "Concluiu sua primeira meta pessoal", Icon: IconTarget},
		{ID: AchievementConsistencyKing, Title: "Lenda do Treino", Description: "Concluiu 5 metas pessoais", Icon: IconCrown},
		{ID: AchievementStarStudent, Title: "Dedicação", Description: "Manteve 3 metas ativas simultaneamente", Icon: IconStar},
	}
}

// CheckAchievements unlocks every achievement whose rule the student now
// satisfies. Unlocks never revert. Returns true when anything changed.
func CheckAchievements(s *Student, now time.Time) bool {
	if len(s.Achievements) == 0 {
		s.Achievements = DefaultAchievements(now)
	}

	completed, active := 0, 0
	for _, g := range s.Goals {
		if g.Completed {
			completed++
		} else {
			active++
		}
	}

	rules := map[string]bool{
		AchievementFirstAssessment: len(s.Assessments) > 0,
		AchievementFirstGoal:       completed >= 1,
		AchievementConsistencyKing: completed >= 5,
		AchievementStarStudent:     active >= 3,
	}

	changed := false
	for i := range s.Achievements {
		a := &s.Achievements[i]
		if a.Unlocked || !rules[a.ID] {
			continue
		}
		unlockedAt := now
		a.Unlocked = true
		a.UnlockedAt = &unlockedAt
		changed = true
	}
	return changed
}
