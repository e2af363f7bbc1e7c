package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/osumedals/crawler/internal/models"
	"github.com/osumedals/crawler/internal/osuapi"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: debug_user <user-id>")
	}

	id, err := strconv.ParseUint(os.Args[1], 10, 32)
	if err != nil {
		log.Fatalf("bad user id: %v", err)
	}

	clientID, err := strconv.Atoi(os.Getenv("OSU_CLIENT_ID"))
	if err != nil {
		log.Fatalf("OSU_CLIENT_ID: %v", err)
	}

	logger, _ := zap.NewDevelopment()

	client := osuapi.NewClient(osuapi.ClientConfig{
		ClientID:     clientID,
		ClientSecret: os.Getenv("OSU_CLIENT_SECRET"),
		Logger:       logger,
	})

	ctx := context.Background()

	for _, mode := range models.AllModes {
		data, err := client.User(ctx, uint32(id), mode)
		if err != nil {
			log.Fatalf("fetch %s: %v", mode, err)
		}

		out, _ := json.MarshalIndent(data, "", "  ")
		fmt.Printf("=== %s ===\n%s\n", mode, out)
	}
}
