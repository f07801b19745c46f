package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

const waitlistCapacityThreshold = 100

// availability snapshots registrations against the capacity policy.
func (e *Enricher) availability(ctx context.Context, s *domain.Session) (*domain.Availability, error) {
	registered, err := e.repo.RegistrationCount(ctx, s.ID)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}

	capacity := s.Capacity
	if capacity <= 0 && e.capacity != nil {
		capacity = e.capacity.EstimateCapacity(s.Location, s.Track)
	}
	if capacity <= 0 {
		capacity = 100
	}

	spots := capacity - registered
	if spots < 0 {
		spots = 0
	}
	return &domain.Availability{
		Registered:     registered,
		Capacity:       capacity,
		SpotsRemaining: spots,
		Waitlist:       spots == 0 && capacity >= waitlistCapacityThreshold,
	}, nil
}

var floorRe = regexp.MustCompile(`(?i)\b(?:level|floor)\s*(\d+|[A-Z]\b)`)

// directionsTable maps a location substring to canned venue guidance.
var directionsTable = []struct {
	match      string
	directions string
	restroom   string
	exit       string
}{
	{"ballroom", "From registration, take the main escalator up one level and follow signs to the Grand Ballroom corridor.", "Restrooms are behind the ballroom foyer, to the left of the coat check.", "Nearest exit is the Grand Ballroom east doors."},
	{"expo", "Enter the Expo Hall through the main show floor doors past registration.", "Restrooms are along the back wall of the Expo Hall.", "Nearest exit is the Expo Hall loading corridor."},
	{"theater", "The Innovation Theater is inside the Expo Hall, rear-left quadrant.", "Restrooms are along the back wall of the Expo Hall.", "Nearest exit is the Expo Hall loading corridor."},
	{"terrace", "Take the tower elevators to the Terrace level and follow the outdoor signage.", "Restrooms are just inside the terrace doors.", "Nearest exit is the terrace stairwell."},
	{"meeting room", "Meeting rooms are down the corridor to the right of the main escalators.", "Restrooms are at the corridor midpoint.", "Nearest exit is the south corridor doors."},
}

// walkingMinutesTable estimates minutes on foot from registration by
// location substring; default is 5.
var walkingMinutesTable = []struct {
	match   string
	minutes int
}{
	{"ballroom", 3},
	{"expo", 4},
	{"theater", 6},
	{"terrace", 8},
	{"meeting room", 5},
	{"registration", 1},
}

// locationDetail parses a raw location string and attaches canned
// directions. Returns nil for an empty location. Results are cached by
// the raw string.
func (e *Enricher) locationDetail(raw string) *domain.LocationDetail {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if cached, ok := e.caches.Locations.Get(raw); ok {
		return &cached
	}

	detail := parseLocation(raw)
	lower := strings.ToLower(raw)
	for _, entry := range directionsTable {
		if strings.Contains(lower, entry.match) {
			detail.Directions = entry.directions
			detail.NearestRestroom = entry.restroom
			detail.NearestExit = entry.exit
			break
		}
	}
	detail.WalkingTimeMinutes = walkingMinutes(lower)

	e.caches.Locations.Set(raw, detail)
	return &detail
}

// parseLocation splits "Building - Room, Level 2" style strings into
// parts via delimiters and a floor-level pattern.
func parseLocation(raw string) domain.LocationDetail {
	detail := domain.LocationDetail{Raw: raw}

	if m := floorRe.FindStringSubmatch(raw); m != nil {
		detail.Floor = m[1]
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '-' || r == '–'
	})
	var cleaned []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || floorRe.MatchString(p) {
			continue
		}
		cleaned = append(cleaned, p)
	}
	switch len(cleaned) {
	case 0:
	case 1:
		detail.Room = cleaned[0]
	default:
		detail.Building = cleaned[0]
		detail.Room = strings.Join(cleaned[1:], ", ")
	}
	return detail
}

func walkingMinutes(lowerLocation string) int {
	for _, entry := range walkingMinutesTable {
		if strings.Contains(lowerLocation, entry.match) {
			return entry.minutes
		}
	}
	return 5
}

// dietaryKeywords are the specific dietary tags scanned for.
var dietaryKeywords = []string{
	"vegetarian", "vegan", "gluten-free", "gluten free", "kosher",
	"halal", "dairy-free", "nut-free", "pescatarian",
}

// mealWords are the meal-like heuristics that trigger the generic
// fallback note when no specific keyword matched.
var mealWords = []string{
	"breakfast", "lunch", "dinner", "reception", "banquet", "buffet",
	"coffee", "refreshment", "meal", "catering", "hors d'oeuvres",
}

const genericDietaryNote = "Dietary accommodations available; check with catering staff at the service station."

// dietaryInfo scans title+description for dietary tags; meal-like
// sessions with no specific tag get the generic note. Non-meal sessions
// return nil (field stays absent).
func dietaryInfo(s *domain.Session) *domain.DietaryInfo {
	text := strings.ToLower(s.Title + " " + s.Description)

	var tags []string
	for _, keyword := range dietaryKeywords {
		if strings.Contains(text, keyword) {
			tags = append(tags, keyword)
		}
	}
	if len(tags) > 0 {
		return &domain.DietaryInfo{Tags: tags}
	}
	for _, word := range mealWords {
		if strings.Contains(text, word) {
			return &domain.DietaryInfo{Generic: genericDietaryNote}
		}
	}
	return nil
}
