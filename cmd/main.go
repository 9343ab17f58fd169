package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	createBookingHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/create_booking"
	createInvoiceHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/create_invoice"
	deleteInvoiceHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/delete_invoice"
	downloadInvoicePDFHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/download_invoice_pdf"
	getBookingHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/get_booking"
	getCustomerBookingsHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/get_customer_bookings"
	getInvoiceHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/get_invoice"
	moveBookingHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/move_booking"
	moveSlotHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/move_slot"
	transitionBookingHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/transition_booking"
	transitionChargeHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/transition_charge"
	transitionInvoiceHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/transition_invoice"
	updateChargeHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/update_charge"
	updateInvoiceHandler "github.com/cerberus-crm/booking-service/internal/api/handlers/update_invoice"
	"github.com/cerberus-crm/booking-service/internal/api/middleware"
	"github.com/cerberus-crm/booking-service/internal/config"
	bookingRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/booking"
	chargeRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/charge"
	customerRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/customer"
	invoiceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/invoice"
	paymentRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/payment"
	serviceRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/service"
	slotRepo "github.com/cerberus-crm/booking-service/internal/infra/storage/slot"
	mailerClient "github.com/cerberus-crm/booking-service/internal/integrations/mailer"
	pdfRenderClient "github.com/cerberus-crm/booking-service/internal/integrations/pdfrender"
	bookingsService "github.com/cerberus-crm/booking-service/internal/service/bookings"
	chargesService "github.com/cerberus-crm/booking-service/internal/service/charges"
	invoicesService "github.com/cerberus-crm/booking-service/internal/service/invoices"
	slotsService "github.com/cerberus-crm/booking-service/internal/service/slots"
	createBookingUC "github.com/cerberus-crm/booking-service/internal/usecase/create_booking"
	moveBookingUC "github.com/cerberus-crm/booking-service/internal/usecase/move_booking"
	moveSlotUC "github.com/cerberus-crm/booking-service/internal/usecase/move_slot"
	transitionBookingUC "github.com/cerberus-crm/booking-service/internal/usecase/transition_booking"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/logger"
	"github.com/cerberus-crm/booking-service/pkg/metrics"
	"github.com/cerberus-crm/booking-service/pkg/simpletxmanager"
	"github.com/cerberus-crm/booking-service/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Cerberus Booking Service...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем интеграционных клиентов
	mailer := mailerClient.NewClient(
		cfg.Mailer.URL,
		time.Duration(cfg.Mailer.Timeout)*time.Second,
		log,
	)
	pdfRender := pdfRenderClient.NewClient(
		cfg.PDFRender.URL,
		time.Duration(cfg.PDFRender.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (Mailer=%s timeout=%ds, PDFRender=%s timeout=%ds)",
		cfg.Mailer.URL, cfg.Mailer.Timeout, cfg.PDFRender.URL, cfg.PDFRender.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository  *bookingRepo.Repository
		slotRepository     *slotRepo.Repository
		serviceRepository  *serviceRepo.Repository
		customerRepository *customerRepo.Repository
		chargeRepository   *chargeRepo.Repository
		invoiceRepository  *invoiceRepo.Repository
		paymentRepository  *paymentRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
		DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		slotRepository = slotRepo.NewRepository(wrappedDB)
		serviceRepository = serviceRepo.NewRepository(wrappedDB)
		customerRepository = customerRepo.NewRepository(wrappedDB)
		chargeRepository = chargeRepo.NewRepository(wrappedDB)
		invoiceRepository = invoiceRepo.NewRepository(wrappedDB)
		paymentRepository = paymentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		slotRepository = slotRepo.NewRepository(db)
		serviceRepository = serviceRepo.NewRepository(db)
		customerRepository = customerRepo.NewRepository(db)
		chargeRepository = chargeRepo.NewRepository(db)
		invoiceRepository = invoiceRepo.NewRepository(db)
		paymentRepository = paymentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	slotAllocator := slotsService.NewAllocator(
		slotRepository,
		bookingRepository,
		log,
	)
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		chargeRepository,
		log,
	)
	chargeSvc := chargesService.NewService(
		chargeRepository,
		invoiceRepository,
		txMgr,
		log,
	)
	invoiceSvc := invoicesService.NewService(
		invoiceRepository,
		chargeRepository,
		paymentRepository,
		customerRepository,
		mailer,
		pdfRender,
		txMgr,
		cfg.Billing.Currency,
		cfg.Billing.InvoiceDueDays,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		serviceRepository,
		customerRepository,
		slotAllocator,
		txMgr,
		log,
	)
	transitionBookingUseCase := transitionBookingUC.NewUseCase(
		bookingRepository,
		chargeRepository,
		serviceRepository,
		customerRepository,
		slotAllocator,
		txMgr,
		log,
	)
	moveBookingUseCase := moveBookingUC.NewUseCase(
		bookingRepository,
		serviceRepository,
		slotAllocator,
		txMgr,
		log,
	)
	moveSlotUseCase := moveSlotUC.NewUseCase(
		slotAllocator,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getCustomerBookings := getCustomerBookingsHandler.NewHandler(bookingSvc, log)
	transitionBooking := transitionBookingHandler.NewHandler(transitionBookingUseCase, log)
	moveBooking := moveBookingHandler.NewHandler(moveBookingUseCase, log)
	moveSlot := moveSlotHandler.NewHandler(moveSlotUseCase, log)
	transitionCharge := transitionChargeHandler.NewHandler(chargeSvc, log)
	updateCharge := updateChargeHandler.NewHandler(chargeSvc, log)
	createInvoice := createInvoiceHandler.NewHandler(invoiceSvc, log)
	getInvoice := getInvoiceHandler.NewHandler(invoiceSvc, log)
	updateInvoice := updateInvoiceHandler.NewHandler(invoiceSvc, log)
	transitionInvoice := transitionInvoiceHandler.NewHandler(invoiceSvc, log)
	deleteInvoice := deleteInvoiceHandler.NewHandler(invoiceSvc, log)
	downloadInvoicePDF := downloadInvoicePDFHandler.NewHandler(invoiceSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Переход бронирования по state machine (process/confirm/cancel/reopen/complete)
	protected.HandleFunc("/bookings/{bookingId}/transitions/{action}",
		transitionBooking.Handle).Methods(http.MethodPost)

	// Перенос бронирования на новое окно
	protected.HandleFunc("/bookings/{bookingId}/move", moveBooking.Handle).Methods(http.MethodPatch)

	// История бронирований клиента
	protected.HandleFunc("/customers/{customerId}/bookings",
		getCustomerBookings.Handle).Methods(http.MethodGet)

	// --- Слоты ---
	// Перенос слота вместе со всеми бронированиями
	protected.HandleFunc("/slots/{slotId}/move", moveSlot.Handle).Methods(http.MethodPatch)

	// --- Списания ---
	// Переход списания (pay/void/refund)
	protected.HandleFunc("/charges/{chargeId}/transitions/{action}",
		transitionCharge.Handle).Methods(http.MethodPost)

	// Изменение списания (заморожено на выставленном счете)
	protected.HandleFunc("/charges/{chargeId}", updateCharge.Handle).Methods(http.MethodPatch)

	// --- Счета ---
	// Создание черновика счета
	protected.HandleFunc("/invoices", createInvoice.Handle).Methods(http.MethodPost)

	// Получение счета по ID
	protected.HandleFunc("/invoices/{invoiceId}", getInvoice.Handle).Methods(http.MethodGet)

	// Редактирование черновика счета
	protected.HandleFunc("/invoices/{invoiceId}", updateInvoice.Handle).Methods(http.MethodPatch)

	// Переход счета (send/resend/pay/void)
	protected.HandleFunc("/invoices/{invoiceId}/transitions/{action}",
		transitionInvoice.Handle).Methods(http.MethodPost)

	// Удаление черновика (или аннулирование отправленного счета)
	protected.HandleFunc("/invoices/{invoiceId}", deleteInvoice.Handle).Methods(http.MethodDelete)

	// Скачивание PDF счета
	protected.HandleFunc("/invoices/{invoiceId}/pdf", downloadInvoicePDF.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
