package domain

import "time"

// FollowEdge is a directed subscription between two identities, unique per
// ordered (follower, following) pair. The remote unique constraint is the
// source of truth; the application never caches edge existence.
type FollowEdge struct {
	FollowerID  string         `json:"follower_id"`
	FollowingID string         `json:"following_id"`
	CreatedAt   time.Time      `json:"created_at"`
	Profile     ProfileSummary `json:"profile"`
}
