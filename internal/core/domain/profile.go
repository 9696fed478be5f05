package domain

import "time"

// Fitness goals a profile can declare.
const (
	GoalLoseWeight  = "lose_weight"
	GoalBuildMuscle = "build_muscle"
	GoalStayActive  = "stay_active"
	GoalEndurance   = "endurance"
)

// Profile is the user-editable record kept one-to-one with an Identity.
// Handle uniqueness is enforced remotely (case-insensitive); the application
// checks availability before writes but never assumes it.
type Profile struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	BirthDate   string    `json:"birth_date,omitempty"`
	HeightCm    float64   `json:"height_cm,omitempty"`
	WeightKg    float64   `json:"weight_kg,omitempty"`
	Goal        string    `json:"goal,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary reduces a Profile to the fields shown on cards and feed rows.
func (p Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:          p.ID,
		Handle:      p.Handle,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
	}
}

// ProfileSummary is the joined author view embedded in feed items and
// follow lists.
type ProfileSummary struct {
	ID          string `json:"id"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
