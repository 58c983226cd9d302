package running

import (
	"time"

	"github.com/google/uuid"

	"abfit/coach-api/internal/domain"
)

// DefaultWeeks is the plan length used when none is configured.
const DefaultWeeks = 4

// Clock supplies "today" for schedule generation.
type Clock interface {
	Today() domain.Date
}

// IDGenerator supplies entry ids; ids from one call must not collide.
type IDGenerator interface {
	NewID() string
}

type SystemClock struct{}

func (SystemClock) Today() domain.Date {
	return domain.NewDate(time.Now())
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

// sessionTemplate is the fixed prescription of one workout type.
type sessionTemplate struct {
	Type        domain.WorkoutType
	Title       string
	Warmup      string
	Main        string
	Cooldown    string
	DistanceKm  float64
	DurationMin float64
	// DaysAfter is the gap from the previous session of the week block.
	DaysAfter int
}

var weeklyTemplates = []sessionTemplate{
	{
		Type:        domain.WorkoutTypeInterval,
		Title:       "Tiros Intensos (HIIT)",
		Warmup:      "10min: Caminhada progressiva (5km/h) a trote leve (8km/h).",
		Main:        "15min: 10x 1min Forte (12-14km/h) / 30s Caminhada. Sinta a queimação!",
		Cooldown:    "5min: Caminhada lenta para voltar à calma.",
		DistanceKm:  5,
		DurationMin: 30,
		DaysAfter:   0,
	},
	{
		Type:        domain.WorkoutTypeBaseRun,
		Title:       "Rodagem Regenerativa",
		Warmup:      "5min: Caminhada vigorosa.",
		Main:        "25min: Corrida contínua em Z2 (Confortável). Mantenha pace de 6:30-7:00 min/km. O objetivo é volume, não velocidade.",
		Cooldown:    "Alongamento estático leve.",
		DistanceKm:  4,
		DurationMin: 30,
		DaysAfter:   2,
	},
	{
		Type:        domain.WorkoutTypeFartlek,
		Title:       "Fartlek Dinâmico",
		Warmup:      "5min Trote leve.",
		Main:        "25min: Brincadeira de velocidade. Alterne livremente: Corra forte até a próxima esquina, trote até o poste. Mínimo de 6 estímulos fortes durante o trajeto.",
		Cooldown:    "5min Caminhada.",
		DistanceKm:  5,
		DurationMin: 35,
		DaysAfter:   2,
	},
	{
		Type:        domain.WorkoutTypeTempo,
		Title:       "Tempo Run (Ritmo)",
		Warmup:      "5min Trote.",
		Main:        "20min: Ritmo sustentado \"confortavelmente difícil\" (Z3). Tente segurar 10-11km/h constantes sem oscilar.",
		Cooldown:    "5min Trote regenerativo.",
		DistanceKm:  5,
		DurationMin: 30,
		DaysAfter:   2,
	},
}

// blockGap is the step from the last session of a week block to the
// first session of the next one.
const blockGap = 1

// GenerateSchedule builds weeks blocks of INTERVAL, BASE_RUN, FARTLEK and
// TEMPO sessions starting on start, all PENDING.
func GenerateSchedule(start domain.Date, weeks int, ids IDGenerator) []domain.RunningWorkoutEntry {
	if weeks <= 0 {
		return []domain.RunningWorkoutEntry{}
	}

	entries := make([]domain.RunningWorkoutEntry, 0, weeks*len(weeklyTemplates))
	day := start
	for week := 0; week < weeks; week++ {
		if week > 0 {
			day = day.AddDays(blockGap)
		}
		for _, t := range weeklyTemplates {
			day = day.AddDays(t.DaysAfter)
			entries = append(entries, domain.RunningWorkoutEntry{
				ID:                  ids.NewID(),
				Type:                t.Type,
				Title:               t.Title,
				WarmupText:          t.Warmup,
				MainText:            t.Main,
				CooldownText:        t.Cooldown,
				ScheduledDate:       day,
				TargetDistanceKm:    t.DistanceKm,
				TargetDistanceLabel: DistanceLabel(t.DistanceKm),
				TargetDurationMin:   t.DurationMin,
				TargetDurationLabel: DurationLabel(t.DurationMin),
				Status:              domain.EntryStatusPending,
			})
		}
	}
	return entries
}
