package supabase

import (
	"context"
	"time"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
)

// workoutColumns selects workouts enriched with the owner summary, exercises
// in insertion order, and the like rows the aggregate is derived from.
const workoutColumns = "id,user_id,title,is_public,workout_date,duration_min,calories,notes,created_at," +
	"owner:profiles!workouts_user_id_fkey(" + summaryColumns + ")," +
	"exercises(id,workout_id,name,sets,reps,weight_kg,created_at)," +
	"workout_likes(user_id)"

// WorkoutStore implements ports.WorkoutGateway against the workouts,
// exercises, and workout_likes tables.
type WorkoutStore struct {
	client *Client
}

type workoutRow struct {
	ID          string                `json:"id"`
	UserID      string                `json:"user_id"`
	Title       string                `json:"title"`
	IsPublic    bool                  `json:"is_public"`
	WorkoutDate string                `json:"workout_date"`
	DurationMin int                   `json:"duration_min"`
	Calories    int                   `json:"calories"`
	Notes       string                `json:"notes"`
	CreatedAt   time.Time             `json:"created_at"`
	Owner       domain.ProfileSummary `json:"owner"`
	Exercises   []domain.Exercise     `json:"exercises"`
	Likes       []struct {
		UserID string `json:"user_id"`
	} `json:"workout_likes"`
}

func (r workoutRow) toDomain(viewerID string) domain.Workout {
	w := domain.Workout{
		ID:          r.ID,
		OwnerID:     r.UserID,
		Title:       r.Title,
		Public:      r.IsPublic,
		Date:        r.WorkoutDate,
		DurationMin: r.DurationMin,
		Calories:    r.Calories,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		Owner:       r.Owner,
		Exercises:   r.Exercises,
		LikeCount:   len(r.Likes),
	}
	if w.Exercises == nil {
		w.Exercises = []domain.Exercise{}
	}
	for _, like := range r.Likes {
		if viewerID != "" && like.UserID == viewerID {
			w.LikedByViewer = true
			break
		}
	}
	return w
}

// Create inserts the workout row, then its exercises, then re-reads the
// enriched record. The two inserts are not transactional; a failed exercise
// insert leaves a workout without movements, which the owner can edit.
func (s *WorkoutStore) Create(ctx context.Context, draft ports.WorkoutDraft) (*domain.Workout, error) {
	me, ok := s.client.auth.identity()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	var created struct {
		ID string `json:"id"`
	}
	err := s.client.from("workouts").
		sel("id").
		one().
		insert(ctx, "create_workout", map[string]any{
			"user_id":      me.ID,
			"title":        draft.Title,
			"is_public":    draft.Public,
			"workout_date": draft.Date,
			"duration_min": draft.DurationMin,
			"calories":     draft.Calories,
			"notes":        draft.Notes,
		}, &created)
	if err != nil {
		return nil, err
	}

	if len(draft.Exercises) > 0 {
		rows := make([]map[string]any, 0, len(draft.Exercises))
		for _, ex := range draft.Exercises {
			rows = append(rows, map[string]any{
				"workout_id": created.ID,
				"name":       ex.Name,
				"sets":       ex.Sets,
				"reps":       ex.Reps,
				"weight_kg":  ex.WeightKg,
			})
		}
		if err := s.client.from("exercises").insert(ctx, "create_exercises", rows, nil); err != nil {
			return nil, err
		}
	}

	return s.getByID(ctx, created.ID, me.ID)
}

func (s *WorkoutStore) getByID(ctx context.Context, id, viewerID string) (*domain.Workout, error) {
	var row workoutRow
	err := s.enriched().
		eq("id", id).
		one().
		get(ctx, "get_workout", &row)
	if err != nil {
		return nil, err
	}
	w := row.toDomain(viewerID)
	return &w, nil
}

func (s *WorkoutStore) ListByUser(ctx context.Context, ownerID string) ([]domain.Workout, error) {
	q := s.enriched().
		eq("user_id", ownerID).
		order("workout_date", false)
	return s.list(ctx, "list_user_workouts", q)
}

func (s *WorkoutStore) ListPublic(ctx context.Context, limit int) ([]domain.Workout, error) {
	q := s.enriched().
		eq("is_public", true).
		order("created_at", false).
		limit(limit)
	return s.list(ctx, "list_public_workouts", q)
}

// ListFollowed resolves the viewer's followed ids first, then lists their
// workouts. Following nobody yields an empty feed without a second request.
func (s *WorkoutStore) ListFollowed(ctx context.Context) ([]domain.Workout, error) {
	me, ok := s.client.auth.identity()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	var edges []struct {
		FollowingID string `json:"following_id"`
	}
	err := s.client.from("follows").
		sel("following_id").
		eq("follower_id", me.ID).
		get(ctx, "list_followed_ids", &edges)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []domain.Workout{}, nil
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.FollowingID)
	}
	q := s.enriched().
		in("user_id", ids).
		order("created_at", false)
	return s.list(ctx, "list_followed_workouts", q)
}

// IsLiked is the single-row existence check behind the like toggle; a
// missing row surfaces as domain.ErrNotFound.
func (s *WorkoutStore) IsLiked(ctx context.Context, workoutID string) (bool, error) {
	me, ok := s.client.auth.identity()
	if !ok {
		return false, domain.ErrUnauthenticated
	}
	var row struct {
		UserID string `json:"user_id"`
	}
	err := s.client.from("workout_likes").
		sel("user_id").
		eq("user_id", me.ID).
		eq("workout_id", workoutID).
		one().
		get(ctx, "is_liked", &row)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *WorkoutStore) Like(ctx context.Context, workoutID string) error {
	me, ok := s.client.auth.identity()
	if !ok {
		return domain.ErrUnauthenticated
	}
	return s.client.from("workout_likes").insert(ctx, "like_workout", map[string]any{
		"user_id":    me.ID,
		"workout_id": workoutID,
	}, nil)
}

func (s *WorkoutStore) Unlike(ctx context.Context, workoutID string) error {
	me, ok := s.client.auth.identity()
	if !ok {
		return domain.ErrUnauthenticated
	}
	return s.client.from("workout_likes").
		eq("user_id", me.ID).
		eq("workout_id", workoutID).
		delete(ctx, "unlike_workout")
}

func (s *WorkoutStore) enriched() *query {
	q := s.client.from("workouts").sel(workoutColumns)
	q.params.Add("exercises.order", "created_at.asc")
	return q
}

func (s *WorkoutStore) list(ctx context.Context, op string, q *query) ([]domain.Workout, error) {
	var rows []workoutRow
	if err := q.get(ctx, op, &rows); err != nil {
		return nil, err
	}
	viewerID := ""
	if me, ok := s.client.auth.identity(); ok {
		viewerID = me.ID
	}
	workouts := make([]domain.Workout, 0, len(rows))
	for _, r := range rows {
		workouts = append(workouts, r.toDomain(viewerID))
	}
	return workouts, nil
}
