package api

import (
	"context"
	"fmt"
	"time"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	redisAdapter "leiloes/adapters/redis"
	internalS3 "leiloes/adapters/s3"
	"leiloes/adapters/session"
	"leiloes/adapters/sse"
)

// BidEvent is the payload streamed to everyone watching a lot.
type BidEvent struct {
	LotID      uuid.UUID `json:"lotId"`
	BidAmount  int64     `json:"bidAmount"`
	BidsCount  int64     `json:"bidsCount"`
	BidderName string    `json:"bidderName"`
	Time       time.Time `json:"time"`
}

// ObjectStorage is the slice of the S3 operator the handlers need. Tests
// substitute an in-memory implementation.
type ObjectStorage interface {
	Upload(ctx context.Context, path, contentType string, fileContent []byte) (string, error)
	Remove(ctx context.Context, path string) error
}

type ServerImpl struct {
	db           *gorm.DB
	storage      ObjectStorage
	sseManager   sse.IConnectionManager[BidEvent]
	htmlChecker  *bluemonday.Policy
	redisClient  *redis.Client
	sessionStore session.IStore

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	s3Cfg, err := awsCfg.LoadDefaultConfig(
		context.Background(),
		awsCfg.WithBaseEndpoint(config.S3.Endpoint),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(config.S3.AccessKeyID, config.S3.SecretAccessKey, "")),
		awsCfg.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to load AWS config, err=%w", op, err)
	}
	s3Operator, err := internalS3.NewS3Operator(s3.NewFromConfig(s3Cfg), config.S3.Bucket, config.S3.PublicBaseURL)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create S3 operator, err=%w", op, err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.Redis.Addr,
		Password: config.Redis.Password,
		DB:       config.Redis.DB,
	})

	// Bid events travel through a Redis stream so every node fans the same
	// events out to its SSE subscribers.
	consumer, err := redisAdapter.NewConsumer[sse.PublishRequest[BidEvent]](redisClient, config.Redis.StreamKeys.Bids)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create stream consumer, err=%w", op, err)
	}
	producer, err := redisAdapter.NewProducer[sse.PublishRequest[BidEvent]](redisClient, config.Redis.StreamKeys.Bids)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create stream producer, err=%w", op, err)
	}
	sseManager := sse.NewConnectionManager[BidEvent](
		sse.WithManagerBridge[BidEvent](consumer, producer),
	)

	sessionStore := redisAdapter.NewStore(
		redisClient,
		redisAdapter.WithStorePrefix(config.Redis.KeyPrefix+"session:"),
		redisAdapter.WithStoreTTL(config.Session.TTL),
	)

	return &ServerImpl{
		db:           db,
		storage:      s3Operator,
		sseManager:   sseManager,
		htmlChecker:  bluemonday.UGCPolicy(),
		redisClient:  redisClient,
		sessionStore: sessionStore,
		config:       config,
	}, nil
}

func (impl *ServerImpl) Start() {
	impl.sseManager.Start()
}

func (impl *ServerImpl) Close() {
	impl.sseManager.Done()
	if impl.redisClient != nil {
		impl.redisClient.Close()
	}
}

// RegisterRoutes wires the API onto router. The guard middleware enforces
// the route table; handlers still resolve the session user themselves for
// surfaces the guard leaves public (bidding lives under /lots).
func (impl *ServerImpl) RegisterRoutes(router gin.IRouter) {
	router.Use(impl.SessionMiddleware(), impl.GuardMiddleware())

	router.GET("/lots", impl.ListLots)
	router.GET("/lots/:lotID", impl.GetLot)
	router.GET("/lots/:lotID/events", impl.StreamLotEvents)
	router.POST("/lots/:lotID/bids", impl.PlaceBid)
	router.GET("/categories", impl.ListCategories)

	auth := router.Group("/auth")
	auth.POST("/signup", impl.SignUp)
	auth.POST("/signin", impl.SignIn)
	auth.POST("/signout", impl.SignOut)
	auth.GET("/session", impl.GetSessionState)

	my := router.Group("/my")
	my.GET("/bids", impl.ListMyBids)
	my.GET("/profile", impl.GetMyProfile)
	my.PATCH("/profile", impl.PatchMyProfile)
	my.POST("/documents", impl.UploadDocument)
	my.GET("/documents", impl.ListMyDocuments)
	my.PUT("/documents/:documentID", impl.ReplaceDocument)
	my.POST("/qualifications", impl.RequestQualification)
	my.GET("/qualifications", impl.ListMyQualifications)

	admin := router.Group("/admin")
	admin.POST("/lots", impl.CreateLot)
	admin.PATCH("/lots/:lotID", impl.UpdateLot)
	admin.DELETE("/lots/:lotID", impl.DeleteLot)
	admin.GET("/users", impl.ListUsers)
	admin.PATCH("/users/:userID", impl.PatchUser)
	admin.POST("/images", impl.PostImage)
	admin.GET("/documents", impl.ListDocuments)
	admin.POST("/documents/:documentID/decision", impl.DecideDocument)
	admin.GET("/dashboard", impl.GetDashboard)
}
