package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/snowpoint-games/arcade-backend/internal/engine"
	"github.com/snowpoint-games/arcade-backend/internal/match"
	"github.com/snowpoint-games/arcade-backend/internal/persist"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/firebase"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/middleware"
	"github.com/snowpoint-games/arcade-backend/internal/pkg/pubsub"
	wshub "github.com/snowpoint-games/arcade-backend/internal/pkg/ws"
	"github.com/snowpoint-games/arcade-backend/internal/settlement"
	"github.com/snowpoint-games/arcade-backend/internal/ws"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	setupViper()
	setupZerolog()
	pubsub.InitPubSub()
	db := setupDb()

	defer func() { pubsub.CloseClient() }()

	firebase.InitFirebaseSdk()

	gateway := persist.NewGateway(db)

	bridge := settlement.NewFlowBridge()
	bridge.Bootstrap(context.Background())

	coordinator := settlement.NewCoordinator(bridge, gateway)
	settlement.ListenForTransferResults(coordinator)

	registry := match.NewRegistry(engine.NewCatalog(), gateway, wshub.NewNotificationHub(), coordinator, bridge)

	scanner := settlement.NewRecoveryScanner(gateway, coordinator)
	scanner.Run(context.Background())

	match.NewTurnClock(registry).Start()

	apiRouter := setupApiRouter(registry, gateway)

	port := viper.Get("PORT").(string)
	server := &http.Server{
		Addr:         port,
		Handler:      apiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	server.ListenAndServe()
}

func setupDb() *gorm.DB {
	dbUrl := viper.Get("DB_URL").(string)

	db, err := gorm.Open(postgres.Open(dbUrl), &gorm.Config{})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	sqlDb, _ := db.DB()

	sqlDb.SetMaxOpenConns(50)
	sqlDb.SetConnMaxLifetime(time.Minute * 10)

	return db
}

func setupApiRouter(registry *match.Registry, gateway persist.Gateway) *gin.Engine {
	apiRouter := gin.Default()
	routerGroup := apiRouter.Group("/arcade-api")

	middleware.RegisterGlobalMiddleware(apiRouter)

	ws.RegisterRoutes(routerGroup, registry)
	match.RegisterRoutes(routerGroup, registry, gateway)

	return apiRouter
}

func setupViper() {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
}

func setupZerolog() {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
