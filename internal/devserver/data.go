package devserver

import (
	"fmt"
	"time"

	"github.com/five82/potluck/internal/api"
)

// Data is the in-memory dataset the server serves. Slices are in display
// order, newest first.
type Data struct {
	Recipes  []api.Recipe
	Users    []api.User
	Comments map[string][]api.Comment
	Logs     map[string][]api.CookingLog
}

var (
	adjectives = []string{"Smoky", "Crispy", "Lemony", "Spicy", "Slow-cooked", "Garlicky", "Charred", "Creamy", "Herby"}
	dishes     = []string{"Kimchi Fried Rice", "Shakshuka", "Ramen", "Dal", "Focaccia", "Tacos", "Risotto", "Pho", "Gnocchi", "Curry", "Paella"}
	people     = []string{"ana", "bo", "chidi", "dara", "eli", "fen", "gus", "hana", "ines", "jun", "kai", "lior"}
)

// Seed builds a deterministic dataset with the given number of recipes.
func Seed(recipes int) Data {
	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	data := Data{
		Comments: make(map[string][]api.Comment),
		Logs:     make(map[string][]api.CookingLog),
	}

	for i, name := range people {
		role := api.RoleMember
		switch i {
		case 0:
			role = api.RoleAdmin
		case 1, 2:
			role = api.RoleModerator
		}
		data.Users = append(data.Users, api.User{
			ID:            fmt.Sprintf("u%02d", i+1),
			Username:      name,
			DisplayName:   titleCase(name),
			FollowerCount: (i * 7) % 31,
			IsFollowing:   i%4 == 1,
			Role:          role,
		})
	}

	for i := 0; i < recipes; i++ {
		author := data.Users[i%len(data.Users)]
		status := api.StatusPublished
		if i%9 == 8 {
			status = api.StatusFlagged
		}
		r := api.Recipe{
			ID:        fmt.Sprintf("r%03d", i+1),
			Title:     adjectives[i%len(adjectives)] + " " + dishes[i%len(dishes)],
			Summary:   fmt.Sprintf("A weeknight take on %s.", dishes[i%len(dishes)]),
			Author:    authorOf(author),
			LikeCount: 1 + (i*13)%57,
			SaveCount: 1 + (i*5)%19,
			IsLiked:   i%5 == 0,
			IsSaved:   i%7 == 0,
			Status:    status,
			CreatedAt: base.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
		}
		for j := 0; j < i%4; j++ {
			commenter := data.Users[(i+j+1)%len(data.Users)]
			data.Comments[r.ID] = append(data.Comments[r.ID], api.Comment{
				ID:        fmt.Sprintf("c%03d-%d", i+1, j+1),
				RecipeID:  r.ID,
				Author:    authorOf(commenter),
				Body:      fmt.Sprintf("Made this %d times already.", j+2),
				LikeCount: j,
				CreatedAt: base.Add(-time.Duration(i)*time.Hour + time.Duration(j+1)*time.Minute).Format(time.RFC3339),
			})
		}
		r.CommentCount = len(data.Comments[r.ID])
		data.Recipes = append(data.Recipes, r)

		cook := data.Users[(i*3)%len(data.Users)]
		data.Logs[cook.ID] = append(data.Logs[cook.ID], api.CookingLog{
			ID:        fmt.Sprintf("l%03d", i+1),
			RecipeID:  r.ID,
			Author:    authorOf(cook),
			Note:      "Doubled the garlic.",
			Rating:    3 + i%3,
			LikeCount: i % 6,
			CookedAt:  base.Add(-time.Duration(i) * 24 * time.Hour).Format(time.DateOnly),
		})
	}
	return data
}

func authorOf(u api.User) api.Author {
	return api.Author{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
