package main

import (
	"time"

	"app/internal/cache"
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/infra/storage"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ランディングページのキャッシュ有効期限
const landingCacheTTL = 5 * time.Minute

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		panic(err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.ProductVariant{},
		&model.Inventory{},
		&model.Cart{},
		&model.CartItem{},
		&model.Customer{},
		&model.CustomerAddress{},
		&model.ShippingMethod{},
		&model.PaymentMethod{},
		&model.Order{},
		&model.OrderItem{},
		&model.OrderStatusHistory{},
		&model.LandingPageContent{},
		&model.Upload{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	customerRepo := infraRepo.NewCustomerGormRepository(gormDB)
	addressRepo := infraRepo.NewCustomerAddressGormRepository(gormDB)
	shippingRepo := infraRepo.NewShippingMethodGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentMethodGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	landingRepo := infraRepo.NewLandingGormRepository(gormDB)
	uploadRepo := infraRepo.NewUploadGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//ファイル保存先
	fileStore, err := storage.NewLocalFileStore(cfg.UploadDir)
	if err != nil {
		panic(err)
	}

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	sectionValidator := validator.NewSectionValidator()
	contentCache := cache.NewContentCache(landingCacheTTL)

	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, customerRepo, authValidator)
	storefrontUC := usecase.NewStorefrontUsecase(productRepo, categoryRepo, inventoryRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)
	checkoutUC := usecase.NewCheckoutUsecase(
		cfg, txManager,
		cartRepo, cartItemRepo, productRepo, inventoryRepo,
		customerRepo, addressRepo, shippingRepo, paymentRepo,
	)
	orderUC := usecase.NewOrderUsecase(customerRepo, orderRepo, orderItemRepo)
	addressUC := usecase.NewAddressUsecase(customerRepo, addressRepo)
	customerUC := usecase.NewCustomerUsecase(customerRepo, orderRepo, orderItemRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txManager, auditRepo)
	adminProductUC := usecase.NewAdminProductUsecase(productRepo, inventoryRepo, auditRepo)
	landingUC := usecase.NewLandingUsecase(landingRepo, auditRepo, sectionValidator, contentCache)
	uploadUC := usecase.NewUploadUsecase(uploadRepo, auditRepo, fileStore, cfg.UploadMaxBytes)

	//Echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowCredentials: true,
	}))

	//Handler生成 + ルート登録
	handler.NewAuthHandler(authUC, cfg).RegisterRoutes(e, cfg, userRepo)
	handler.NewStorefrontHandler(storefrontUC).RegisterRoutes(e)
	handler.NewCartHandler(cartUC).RegisterRoutes(e, cfg)
	handler.NewCheckoutHandler(checkoutUC).RegisterRoutes(e, cfg)
	handler.NewOrderHandler(orderUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAddressHandler(addressUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewCustomerHandler(customerUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminOrderHandler(adminOrderUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminProductHandler(adminProductUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewAdminUserHandler(authUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewLandingHandler(landingUC).RegisterRoutes(e, cfg, userRepo)
	handler.NewUploadHandler(uploadUC).RegisterRoutes(e, cfg, userRepo)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
