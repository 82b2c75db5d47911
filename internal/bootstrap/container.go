package bootstrap

import (
	"log"

	"docuchat-be/internal/config"
	"docuchat-be/internal/controller"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/pkg/mailer"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/internal/service"
	"docuchat-be/pkg/llm/factory"
	pktNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/storage"
	localstore "docuchat-be/pkg/storage/local"
	memorystore "docuchat-be/pkg/storage/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

const processDocumentTopic = "PROCESS_DOCUMENT"

type Container struct {
	// Controllers
	AuthController     controller.IAuthController
	UserController     controller.IUserController
	DocumentController controller.IDocumentController
	ChatbotController  controller.IChatbotController

	// Background services (exposed for main.go to run)
	ProcessorService service.IProcessorService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Task queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Content storage
	var contentStore storage.ContentStore
	if cfg.Storage.Driver == "memory" {
		contentStore = memorystore.New()
		log.Printf("[INFO] Using content storage: MEMORY (transient, documents are lost on restart)")
	} else {
		var err error
		contentStore, err = localstore.New(cfg.Storage.UploadDir)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize local storage: %v", err)
		}
		log.Printf("[INFO] Using content storage: LOCAL (%s)", cfg.Storage.UploadDir)
	}

	// 4. LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. NATS domain events (optional, the app runs without a broker)
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}

	// 6. Services
	textCache := service.NewDocumentTextCache()
	publisherService := service.NewPublisherService(processDocumentTopic, pubSub)
	processorService := service.NewProcessorService(
		pubSub,
		processDocumentTopic,
		uowFactory,
		contentStore,
		llmProvider,
		natsPub,
		textCache,
	)

	authService := service.NewAuthService(uowFactory, emailService, natsPub)
	userService := service.NewUserService(uowFactory, contentStore, sysLogger)
	documentService := service.NewDocumentService(uowFactory, contentStore, publisherService, natsPub, sysLogger, textCache)
	chatbotService := service.NewChatbotService(uowFactory, llmProvider, natsPub, sysLogger, textCache)

	// 7. Controllers
	return &Container{
		AuthController:     controller.NewAuthController(authService),
		UserController:     controller.NewUserController(userService),
		DocumentController: controller.NewDocumentController(documentService),
		ChatbotController:  controller.NewChatbotController(chatbotService),
		ProcessorService:   processorService,
		Logger:             sysLogger,
	}
}
