package supabase

import (
	"context"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
)

const (
	profileColumns = "id,handle,display_name,avatar_url,bio,birth_date,height_cm,weight_kg,goal,created_at,updated_at"
	summaryColumns = "id,handle,display_name,avatar_url"
)

// ProfileStore implements ports.ProfileGateway against the profiles table.
type ProfileStore struct {
	client *Client
}

func (s *ProfileStore) Get(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile
	err := s.client.from("profiles").
		sel(profileColumns).
		eq("id", id).
		one().
		get(ctx, "get_profile", &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileStore) Update(ctx context.Context, id string, update ports.ProfileUpdate) (*domain.Profile, error) {
	payload := map[string]any{}
	if update.Handle != nil {
		payload["handle"] = *update.Handle
	}
	if update.DisplayName != nil {
		payload["display_name"] = *update.DisplayName
	}
	if update.AvatarURL != nil {
		payload["avatar_url"] = *update.AvatarURL
	}
	if update.Bio != nil {
		payload["bio"] = *update.Bio
	}
	if update.BirthDate != nil {
		payload["birth_date"] = *update.BirthDate
	}
	if update.HeightCm != nil {
		payload["height_cm"] = *update.HeightCm
	}
	if update.WeightKg != nil {
		payload["weight_kg"] = *update.WeightKg
	}
	if update.Goal != nil {
		payload["goal"] = *update.Goal
	}

	var profile domain.Profile
	err := s.client.from("profiles").
		sel(profileColumns).
		eq("id", id).
		one().
		patch(ctx, "update_profile", payload, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CheckHandleAvailable looks for an existing row with the same handle
// (case-insensitive), excluding excludeID so a user keeping their own handle
// passes.
func (s *ProfileStore) CheckHandleAvailable(ctx context.Context, handle, excludeID string) (bool, error) {
	q := s.client.from("profiles").sel("id").limit(1)
	q.params.Add("handle", "ilike."+escapeTerm(handle))
	if excludeID != "" {
		q.neq("id", excludeID)
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := q.get(ctx, "check_handle", &rows); err != nil {
		return false, err
	}
	return len(rows) == 0, nil
}

// Search matches handle OR display name, case-insensitive substring. An
// empty term returns the newest profiles as the suggested-users selection.
func (s *ProfileStore) Search(ctx context.Context, term string, limit int) ([]domain.ProfileSummary, error) {
	q := s.client.from("profiles").
		sel(summaryColumns).
		order("created_at", false).
		limit(limit)
	if term != "" {
		escaped := escapeTerm(term)
		q.or("handle.ilike.*" + escaped + "*,display_name.ilike.*" + escaped + "*")
	}

	var profiles []domain.ProfileSummary
	if err := q.get(ctx, "search_profiles", &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
