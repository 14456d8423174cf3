package main

import (
	"context"
	"fmt"

	common_api "go-approvals/internal/common/api"
	"go-approvals/internal/config"
	"go-approvals/internal/database"
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/reminder"
	"go-approvals/internal/features/report"
	"go-approvals/internal/features/requirement"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/system"
	"go-approvals/internal/features/template"
	"go-approvals/internal/features/transfer"
	"go-approvals/internal/logger"
	"go-approvals/internal/middleware"
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common_api.Error(c, err)
		},
	})

	app.Use(middleware.CORSMiddleware(cfg))
	app.Use(middleware.RequestLogger(log))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, log *zap.Logger, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Info("All routes registered", zap.Int("apis", len(routes)))
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, ``, `group:"routes"`),
)

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(
	lc fx.Lifecycle,
	log *zap.Logger,
	audits audit.AuditRepository,
	forms form.FormRepository,
	templates template.TemplateRepository,
	requirements requirement.RequirementRepository,
	approvals approval.ApprovalRepository,
	notifications notification.NotificationRepository,
	rules notification.RuleRepository,
	schedules schedule.ScheduleRepository,
	moderators moderator.ModeratorRepository,
	runs reminder.RunRepository,
) {
	database.EnsureIndexes(lc, log, []database.Indexer{
		audits, forms, templates, requirements, approvals,
		notifications, rules, schedules, moderators, runs,
	})
}

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				log.Info("Server listening", zap.String("addr", port))
				if err := app.Listen(port); err != nil {
					log.Fatal("Server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StartReminders runs the pending-approval sweep for the app's lifetime.
func StartReminders(lc fx.Lifecycle, reminders reminder.ReminderService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return reminders.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return reminders.Stop()
		},
	})
}

func ConfigureTokens(cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
}

func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewTransactor,

			// Initialize Repository
			audit.NewAuditRepository,
			form.NewFormRepository,
			template.NewTemplateRepository,
			requirement.NewRequirementRepository,
			approval.NewApprovalRepository,
			notification.NewNotificationRepository,
			notification.NewRuleRepository,
			schedule.NewScheduleRepository,
			moderator.NewModeratorRepository,
			reminder.NewRunRepository,
			approval.NewPendingReassigner,

			// Initialize Service
			notification.NewHub,
			audit.NewAuditService,
			form.NewFormService,
			template.NewTemplateService,
			requirement.NewRequirementService,
			notification.NewNotificationService,
			approval.NewApprovalService,
			schedule.NewScheduleService,
			moderator.NewModeratorService,
			transfer.NewTransferService,
			reminder.NewReminderService,
			report.NewReportService,

			// Initialize Controller
			audit.NewAuditController,
			form.NewFormController,
			template.NewTemplateController,
			requirement.NewRequirementController,
			notification.NewNotificationController,
			notification.NewStreamController,
			approval.NewApprovalController,
			schedule.NewScheduleController,
			moderator.NewModeratorController,
			transfer.NewTransferController,
			reminder.NewReminderController,
			report.NewReportController,
			system.NewDebugController,

			// Register Routes
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewDebugApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(form.NewFormApi),
			AsRoute(template.NewTemplateApi),
			AsRoute(requirement.NewRequirementApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(approval.NewApprovalApi),
			AsRoute(schedule.NewScheduleApi),
			AsRoute(moderator.NewModeratorApi),
			AsRoute(transfer.NewTransferApi),
			AsRoute(reminder.NewReminderApi),
			AsRoute(report.NewReportApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureTokens,
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			StartServer,
			StartReminders,
		),
	)

	app.Run()
}
