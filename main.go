package main

import (
	"context"
	"os"

	config "github.com/sing3demons/go-order-admin/configs"
	"github.com/sing3demons/go-order-admin/mongo"
	"github.com/sing3demons/go-order-admin/order"
	"github.com/sing3demons/go-order-admin/pkg/logger"
	"github.com/sing3demons/go-order-admin/pkg/router"
	"github.com/sing3demons/go-order-admin/product"
)

func main() {
	conf := config.NewConfig()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		if err := conf.LoadYAML(file); err != nil {
			panic(err)
		}
	}
	conf.LoadEnv("configs")

	log := logger.NewLogger(conf.Log.App)
	defer log.Sync()

	var (
		orderStore   order.Store
		productStore product.ProductStore
	)

	switch conf.Store.Driver {
	case config.StoreDriverMemory:
		log.Log("using in-memory stores")
		orderStore = order.NewMemoryStore()
		productStore = product.NewMemoryStore()
	default:
		mongoClient := mongo.New(mongo.Config{
			URI:      conf.Mongo.URI,
			Host:     conf.Mongo.Host,
			Database: conf.Mongo.Database,
			Timeout:  conf.Mongo.Timeout,
		})
		mongoClient.UseLogger(log)
		if err := mongoClient.Connect(context.Background()); err != nil {
			log.Errorf("failed to connect to mongo: %v", err)
			os.Exit(1)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Errorf("mongo disconnect: %v", err)
			}
		}()

		orderStore = order.NewMongoStore(mongoClient.Collection("orders"), conf.Mongo.Timeout)
		productStore = product.NewProductStore(mongoClient.Collection("products"), conf.Mongo.Timeout)
	}

	app := router.NewApplication(conf, log)
	app.LogDetail(logger.NewLogger(conf.Log.Detail))
	app.LogSummary(logger.NewLogger(conf.Log.Summary))
	app.StartKafka()

	for _, topic := range order.Topics {
		app.CreateTopic(topic)
	}
	app.CreateTopic(product.TopicProductCreated)

	order.RegisterRoutes(app, order.NewHandler(orderStore))
	product.RegisterRoutes(app, product.NewHandler(productStore))

	app.Consumer(product.TopicProductCreated, product.NewConsumer(productStore).ProductCreated)

	app.Start()
}
