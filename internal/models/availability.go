package models

// AvailabilityType tags what an availability block can be booked for.
type AvailabilityType string

const (
	AvailabilityClassicalGame          AvailabilityType = "CLASSICAL_GAME"
	AvailabilityOpeningSparring        AvailabilityType = "OPENING_SPARRING"
	AvailabilityMiddlegameSparring     AvailabilityType = "MIDDLEGAME_SPARRING"
	AvailabilityEndgameSparring        AvailabilityType = "ENDGAME_SPARRING"
	AvailabilityRookEndgameProgression AvailabilityType = "ROOK_ENDGAME_PROGRESSION"
	AvailabilityClassicAnalysis        AvailabilityType = "CLASSIC_ANALYSIS"
	AvailabilityAnalyzeOwnGame         AvailabilityType = "ANALYZE_OWN_GAME"
	AvailabilityBookStudy              AvailabilityType = "BOOK_STUDY"
)

// AllTypesCapacity is the default capacity when every availability type is offered.
const AllTypesCapacity = 100

// AvailabilityTypes lists every type in canonical order.
var AvailabilityTypes = []AvailabilityType{
	AvailabilityClassicalGame,
	AvailabilityOpeningSparring,
	AvailabilityMiddlegameSparring,
	AvailabilityEndgameSparring,
	AvailabilityRookEndgameProgression,
	AvailabilityClassicAnalysis,
	AvailabilityAnalyzeOwnGame,
	AvailabilityBookStudy,
}

// DefaultCapacity is the default maxParticipants for each availability type.
// Games and sparring are one-on-one; analysis and study sessions are groups.
var DefaultCapacity = map[AvailabilityType]int{
	AvailabilityClassicalGame:          1,
	AvailabilityOpeningSparring:        1,
	AvailabilityMiddlegameSparring:     1,
	AvailabilityEndgameSparring:        1,
	AvailabilityRookEndgameProgression: 1,
	AvailabilityClassicAnalysis:        100,
	AvailabilityAnalyzeOwnGame:         100,
	AvailabilityBookStudy:              100,
}

// IsValid reports whether t is a known availability type.
func (t AvailabilityType) IsValid() bool {
	_, ok := DefaultCapacity[t]
	return ok
}

// DisplayName returns a human readable label.
func (t AvailabilityType) DisplayName() string {
	switch t {
	case AvailabilityClassicalGame:
		return "Classical Game"
	case AvailabilityOpeningSparring:
		return "Opening Sparring"
	case AvailabilityMiddlegameSparring:
		return "Middlegame Sparring"
	case AvailabilityEndgameSparring:
		return "Endgame Sparring"
	case AvailabilityRookEndgameProgression:
		return "Rook Endgame Progression"
	case AvailabilityClassicAnalysis:
		return "Analyze Classic Game"
	case AvailabilityAnalyzeOwnGame:
		return "Analyze Own Game"
	case AvailabilityBookStudy:
		return "Book Study"
	default:
		return "Unknown"
	}
}
