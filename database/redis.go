package database

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"estate-service/config"

	"github.com/redis/go-redis/v9"
)

const (
	// RedisTokens holds one refresh token per user id.
	RedisTokens = 0
	// RedisSocket backs the socket.io adapter.
	RedisSocket = 1
)

var Redis = make(map[int]*redis.Client)

func RedisConnect() {
	for _, db := range strings.Split(config.Default("REDIS_DB", "0,1"), ",") {
		dbNumber, _ := strconv.Atoi(strings.TrimSpace(db))

		options := &redis.Options{
			Addr: fmt.Sprintf(
				"%s:%s",
				config.Config("REDIS_HOST"),
				config.Config("REDIS_PORT"),
			),
			Password: config.Config("REDIS_PASSWORD"),
			DB:       dbNumber,
		}

		Redis[dbNumber] = redis.NewClient(options)
	}

	log.Printf("Connections opened to Redis")
}
