package domain

import "time"

// Workout is a logged activity owned by exactly one Identity. Visibility is a
// flat public/private flag; ownership of writes is enforced remotely.
type Workout struct {
	ID          string         `json:"id"`
	OwnerID     string         `json:"user_id"`
	Title       string         `json:"title"`
	Public      bool           `json:"is_public"`
	Date        string         `json:"workout_date"`
	DurationMin int            `json:"duration_min,omitempty"`
	Calories    int            `json:"calories,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Owner       ProfileSummary `json:"owner"`
	// Exercises are kept in insertion order; there is no explicit rank field.
	Exercises []Exercise `json:"exercises"`
	LikeCount int        `json:"like_count"`
	// LikedByViewer reflects the requesting identity at fetch time. It is a
	// display hint only; the like toggle re-derives liked state remotely.
	LikedByViewer bool `json:"liked_by_viewer"`
}

// Exercise is a single movement inside a Workout.
type Exercise struct {
	ID        string    `json:"id"`
	WorkoutID string    `json:"workout_id"`
	Name      string    `json:"name"`
	Sets      int       `json:"sets,omitempty"`
	Reps      int       `json:"reps,omitempty"`
	WeightKg  float64   `json:"weight_kg,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
