package api

import (
	"strings"
	"time"

	"github.com/five82/potluck/internal/state"
)

// Entity kinds used in action and admin URLs.
const (
	KindRecipes     = "recipes"
	KindComments    = "comments"
	KindUsers       = "users"
	KindCookingLogs = "cooking-logs"
)

// Toggle actions accepted by POST /api/{kind}/{id}/actions.
const (
	ActionLike     = "like"
	ActionUnlike   = "unlike"
	ActionSave     = "save"
	ActionUnsave   = "unsave"
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
)

// Moderation statuses a recipe can carry.
const (
	StatusPublished = "published"
	StatusHidden    = "hidden"
	StatusFlagged   = "flagged"
)

// ModerationStatuses lists recipe statuses in cycling order.
var ModerationStatuses = []string{StatusPublished, StatusHidden, StatusFlagged}

// User roles.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Roles lists user roles in cycling order.
var Roles = []string{RoleMember, RoleModerator, RoleAdmin}

// PageResponse mirrors every cursor-paginated list endpoint.
type PageResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor"`
	HasMore    bool   `json:"hasMore"`
}

// Page converts the wire page into the list page model.
func (p PageResponse[T]) Page() state.Page[T] {
	return state.Page[T]{Items: p.Items, Cursor: p.NextCursor, HasMore: p.HasMore}
}

// Author is the compact user shape embedded in content.
type Author struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Label returns the display name, falling back to the username.
func (a Author) Label() string {
	if name := strings.TrimSpace(a.DisplayName); name != "" {
		return name
	}
	if a.Username == "" {
		return "unknown"
	}
	return "@" + a.Username
}

// Recipe mirrors recipe payloads in the feed, search and admin lists.
type Recipe struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	Author       Author `json:"author"`
	LikeCount    int    `json:"likeCount"`
	SaveCount    int    `json:"saveCount"`
	CommentCount int    `json:"commentCount"`
	IsLiked      bool   `json:"isLiked"`
	IsSaved      bool   `json:"isSaved"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

func (r Recipe) EntityID() string { return r.ID }

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (r Recipe) ParsedCreatedAt() time.Time { return parseTime(r.CreatedAt) }

// Comment is one comment on a recipe.
type Comment struct {
	ID        string `json:"id"`
	RecipeID  string `json:"recipeId"`
	Author    Author `json:"author"`
	Body      string `json:"body"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
	CreatedAt string `json:"createdAt"`
}

func (c Comment) EntityID() string { return c.ID }

// User is a profile as listed by admin and follow surfaces.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	FollowerCount int    `json:"followerCount"`
	IsFollowing   bool   `json:"isFollowing"`
	Role          string `json:"role"`
}

func (u User) EntityID() string { return u.ID }

// CookingLog records that a user cooked a recipe.
type CookingLog struct {
	ID        string `json:"id"`
	RecipeID  string `json:"recipeId"`
	Author    Author `json:"author"`
	Note      string `json:"note"`
	Rating    int    `json:"rating"`
	LikeCount int    `json:"likeCount"`
	IsLiked   bool   `json:"isLiked"`
	CookedAt  string `json:"cookedAt"`
}

func (l CookingLog) EntityID() string { return l.ID }

// ParsedCookedAt returns the parsed CookedAt timestamp.
func (l CookingLog) ParsedCookedAt() time.Time { return parseTime(l.CookedAt) }

// ActionRequest is the body of POST /api/{kind}/{id}/actions.
type ActionRequest struct {
	Action string `json:"action"`
}

// FieldUpdate is the body of PATCH /api/admin/{kind}/{id}.
type FieldUpdate struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ErrorResponse is the JSON error body the API may return.
type ErrorResponse struct {
	Error string `json:"error"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
