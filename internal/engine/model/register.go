package model

import "github.com/go-arcade/huddle/pkg/database"

func init() {
	database.RegisterModels(
		&Plan{},
		&PlanDate{},
		&PlanActivity{},
		&DateVote{},
		&ActivityVote{},
		&Invitation{},
	)
}
