package main

import (
	"auticonnect/internal/app"
	"auticonnect/internal/config"
	"auticonnect/internal/logger"
	"auticonnect/internal/model"
	"auticonnect/internal/repository"
	"context"
	"fmt"
	"os"
	"time"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := app.ConnectMongo(ctx, cfg.Store.MongoURI)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.Store.MongoDatabase)
	users := repository.NewUserRepo(db)
	groups := repository.NewGroupRepo(db)
	activities := repository.NewActivityRepo(db)

	seedUsers := []*model.User{
		{ID: "user_ana", Name: "Ana", Role: string(model.RoleAutistic), Interests: []string{"trens", "mapas"}, Groups: []string{"group_trens"}},
		{ID: "user_bruno", Name: "Bruno", Role: string(model.RoleAutistic), Interests: []string{"trens", "astronomia"}, Groups: []string{"group_trens"}},
		{ID: "user_carla", Name: "Carla", Role: string(model.RoleTherapeuticAssistant), Groups: []string{"group_trens"}},
	}
	for _, u := range seedUsers {
		if err := users.Upsert(ctx, u); err != nil {
			log.Fatal("failed to upsert user", "user_id", u.ID, "error", err)
		}
	}

	group := &model.Group{
		ID:          "group_trens",
		Name:        "Trens e Ferrovias",
		Theme:       "ferrovias",
		Description: "Um espaço para conversar sobre trens, estações e viagens.",
		Members:     []string{"user_ana", "user_bruno", "user_carla"},
		CreatedBy:   "user_carla",
		MaxMembers:  8,
		CreatedAt:   time.Now(),
	}
	if err := groups.Upsert(ctx, group); err != nil {
		log.Fatal("failed to upsert group", "error", err)
	}

	activity := &model.Activity{
		ID:          "activity_mapa",
		GroupID:     group.ID,
		Title:       "Mapa das Linhas",
		Type:        "colaborativa",
		Description: "Cada participante escolhe uma estação e conta por que gosta dela.",
		DurationMin: 30,
		Stages:      []string{"introdução", "escolha das estações", "apresentação", "conclusão"},
	}
	if err := activities.Upsert(ctx, activity); err != nil {
		log.Fatal("failed to upsert activity", "error", err)
	}

	fmt.Printf("Seeded %d users, group '%s' and activity '%s'\n", len(seedUsers), group.Name, activity.Title)
}
