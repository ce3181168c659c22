package model

import "time"

type Group struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Theme       string    `json:"theme" bson:"theme"`
	Description string    `json:"description" bson:"description"`
	Members     []string  `json:"members" bson:"members"`
	CreatedBy   string    `json:"createdBy" bson:"createdBy"`
	MaxMembers  int       `json:"maxMembers" bson:"maxMembers"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}
