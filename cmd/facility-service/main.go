package main

import (
	"context"
	"fmt"
	"os"

	"github.com/brightserv/facilityops/internal/auth"
	"github.com/brightserv/facilityops/internal/config"
	"github.com/brightserv/facilityops/internal/db"
	"github.com/brightserv/facilityops/internal/excel"
	httphandler "github.com/brightserv/facilityops/internal/http"
	"github.com/brightserv/facilityops/internal/http/middleware"
	"github.com/brightserv/facilityops/internal/logger"
	"github.com/brightserv/facilityops/internal/pdf"
	"github.com/brightserv/facilityops/internal/repository"
	"github.com/brightserv/facilityops/internal/service"
	"github.com/brightserv/facilityops/internal/tax"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	taxTable, err := tax.Load(context.Background(), database, cfg.Billing.DefaultTaxRate)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load tax rates")
	}

	leadRepo := repository.NewLeadRepository(database)
	quoteRepo := repository.NewQuoteRepository(database)
	templateRepo := repository.NewTemplateRepository(database)
	workflowRepo := repository.NewWorkflowRepository(database)
	workOrderRepo := repository.NewWorkOrderRepository(database)
	billingRepo := repository.NewBillingRepository(database)
	commissionRepo := repository.NewCommissionRepository(database)
	vendorRepo := repository.NewVendorRepository(database)
	activityRepo := repository.NewActivityRepository(database)
	mailRepo := repository.NewMailRepository(database)

	pdfGenerator, err := pdf.NewGenerator()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init pdf generator")
	}
	excelGenerator := excel.NewGenerator()

	leadService := service.NewLeadService(leadRepo, activityRepo)
	quoteService := service.NewQuoteService(leadRepo, quoteRepo, templateRepo, workflowRepo, activityRepo, mailRepo, cfg)
	workOrderService := service.NewWorkOrderService(workOrderRepo, vendorRepo, activityRepo)
	billingService := service.NewBillingService(leadRepo, workOrderRepo, vendorRepo, billingRepo, taxTable, pdfGenerator, excelGenerator, cfg)
	commissionService := service.NewCommissionService(commissionRepo, excelGenerator)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(leadService, quoteService, workOrderService, billingService, commissionService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting facility service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
