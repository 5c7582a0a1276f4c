package lists

import (
	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/optimistic"
)

// Toggleable field names, matching the API's JSON keys.
const (
	FieldLiked     = "isLiked"
	FieldSaved     = "isSaved"
	FieldFollowing = "isFollowing"
)

func actionFor(on, off string) func(bool) string {
	return func(desired bool) string {
		if desired {
			return on
		}
		return off
	}
}

// RecipeFields are the toggles available on recipe rows. Saves are
// broadcast so every screen showing the recipe follows along.
func RecipeFields() []optimistic.Field[api.Recipe] {
	return []optimistic.Field[api.Recipe]{
		{
			Name:    FieldLiked,
			Get:     func(r api.Recipe) bool { return r.IsLiked },
			Set:     func(r *api.Recipe, v bool) { r.IsLiked = v },
			Counter: func(r *api.Recipe, d int) { r.LikeCount += d },
			Action:  actionFor(api.ActionLike, api.ActionUnlike),
		},
		{
			Name:      FieldSaved,
			Get:       func(r api.Recipe) bool { return r.IsSaved },
			Set:       func(r *api.Recipe, v bool) { r.IsSaved = v },
			Counter:   func(r *api.Recipe, d int) { r.SaveCount += d },
			Action:    actionFor(api.ActionSave, api.ActionUnsave),
			Broadcast: true,
		},
	}
}

// CommentFields are the toggles available on comments.
func CommentFields() []optimistic.Field[api.Comment] {
	return []optimistic.Field[api.Comment]{{
		Name:    FieldLiked,
		Get:     func(c api.Comment) bool { return c.IsLiked },
		Set:     func(c *api.Comment, v bool) { c.IsLiked = v },
		Counter: func(c *api.Comment, d int) { c.LikeCount += d },
		Action:  actionFor(api.ActionLike, api.ActionUnlike),
	}}
}

// CookingLogFields are the toggles available on cooking logs.
func CookingLogFields() []optimistic.Field[api.CookingLog] {
	return []optimistic.Field[api.CookingLog]{{
		Name:    FieldLiked,
		Get:     func(l api.CookingLog) bool { return l.IsLiked },
		Set:     func(l *api.CookingLog, v bool) { l.IsLiked = v },
		Counter: func(l *api.CookingLog, d int) { l.LikeCount += d },
		Action:  actionFor(api.ActionLike, api.ActionUnlike),
	}}
}

// UserFields are the toggles available on user rows.
func UserFields() []optimistic.Field[api.User] {
	return []optimistic.Field[api.User]{{
		Name:      FieldFollowing,
		Get:       func(u api.User) bool { return u.IsFollowing },
		Set:       func(u *api.User, v bool) { u.IsFollowing = v },
		Counter:   func(u *api.User, d int) { u.FollowerCount += d },
		Action:    actionFor(api.ActionFollow, api.ActionUnfollow),
		Broadcast: true,
	}}
}
