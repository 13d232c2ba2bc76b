package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"estate-service/config"
	"estate-service/database"
	"estate-service/event"
	"estate-service/event/listener"
	"estate-service/router"
	"estate-service/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log.SetPrefix("estate-service: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             20 * 1024 * 1024,
		AppName:               "estate-service",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()
	database.CasbinConnect()
	if err := database.BootstrapAdmin(config.Config("ADMIN_EMAIL")); err != nil {
		log.Printf("bootstrap admin: %v", err)
	}

	event.RabbitMQConnect([]string{
		event.QueueApi,
		event.QueueBackoffice,
	})

	// Run "api" listener
	go listener.Api()

	// Subscribe listener channel to "api" events
	event.RabbitMQSubscribe([]event.RabbitMQSubscribeListener{
		{
			Queue:   event.QueueApi,
			Channel: listener.ApiChannel,
		},
	})

	// Init event logs
	event.Init()

	socket := socketio.Init(rest)

	router.Rest(rest)
	router.Socket(socket)

	go func() {
		if err := rest.Listen(fmt.Sprintf(":%s", config.Default("SERVER_PORT", "3000"))); err != nil {
			log.Fatal(err)
		}
	}()

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	socketio.Close()
	rest.Shutdown()
	event.RabbitMQChannel.Close()
	event.RabbitMQConnection.Close()
	event.InLogFile.Close()
	event.OutLogFile.Close()
	os.Exit(0)
}
