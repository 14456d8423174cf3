package main

import (
	"context"
	"encoding/json"
	"os"

	"go-approvals/internal/config"
	"go-approvals/internal/database"
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/audit"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/requirement"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"
	"go-approvals/internal/logger"
	"go-approvals/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

type seedApprover struct {
	User           string `json:"user"`
	SequenceNumber int    `json:"sequence_number"`
	IsMandatory    *bool  `json:"is_mandatory"`
	DeadlineDays   *int   `json:"deadline_days"`
}

type seedForm struct {
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Format          string         `json:"format"`
	Category        string         `json:"category"`
	FollowsSequence bool           `json:"follows_approval_sequence"`
	Approvers       []seedApprover `json:"approvers"`
	Requirements    []struct {
		User         string `json:"user"`
		RequiredForm string `json:"required_form"`
	} `json:"requirements"`
	Notify []struct {
		User    string               `json:"user"`
		Trigger notification.Trigger `json:"trigger"`
	} `json:"notify"`
	Moderators []string `json:"moderators"`
	Schedules  []struct {
		User          string                 `json:"user"`
		FrequencyType schedule.FrequencyType `json:"frequency_type"`
	} `json:"schedules"`
}

type seedData struct {
	Users map[string]string `json:"users"`
	Forms []seedForm        `json:"forms"`
}

type services struct {
	fx.In

	Forms         form.FormService
	Templates     template.TemplateService
	Requirements  requirement.RequirementService
	Notifications notification.NotificationService
	Moderators    moderator.ModeratorService
	Schedules     schedule.ScheduleService
	Approvals     approval.ApprovalService
}

// Seed loads the demo forms and approval chains, submits one response and
// prints a token per demo user.
func Seed(lc fx.Lifecycle, svc services, cfg *config.Config, logger *zap.Logger, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()
				if err := run(context.Background(), svc, cfg, logger); err != nil {
					logger.Error("Seeding failed", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func run(ctx context.Context, svc services, cfg *config.Config, logger *zap.Logger) error {
	b, err := os.ReadFile("cmd/seed/data/demo.json")
	if err != nil {
		return err
	}
	var data seedData
	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}

	users := make(map[string]primitive.ObjectID, len(data.Users))
	for name, hex := range data.Users {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return err
		}
		users[name] = id
	}

	formIDs := map[string]primitive.ObjectID{}
	for _, sf := range data.Forms {
		f := &form.Form{Title: sf.Title, Description: sf.Description, Format: sf.Format, Category: sf.Category, CreatedBy: users["requester"]}
		if err := svc.Forms.CreateForm(ctx, f); err != nil {
			return err
		}
		formIDs[sf.Title] = f.ID

		inputs := make([]template.ApproverInput, 0, len(sf.Approvers))
		for _, a := range sf.Approvers {
			inputs = append(inputs, template.ApproverInput{
				ApproverID:      users[a.User],
				SequenceNumber:  a.SequenceNumber,
				IsMandatory:     a.IsMandatory,
				DeadlineDays:    a.DeadlineDays,
				FollowsSequence: sf.FollowsSequence,
			})
		}
		if _, err := svc.Templates.AddApprovers(ctx, f.ID, inputs); err != nil {
			return err
		}

		for _, r := range sf.Requirements {
			if _, _, err := svc.Requirements.CreateRequirement(ctx, f.ID, requirement.RequirementInput{
				ApproverID:     users[r.User],
				RequiredFormID: formIDs[r.RequiredForm],
			}); err != nil {
				return err
			}
		}
		for _, n := range sf.Notify {
			if _, err := svc.Notifications.CreateRule(ctx, f.ID, users[n.User], n.Trigger); err != nil {
				return err
			}
		}
		for _, m := range sf.Moderators {
			if _, err := svc.Moderators.Assign(ctx, f.ID, users[m]); err != nil {
				return err
			}
		}
		for _, s := range sf.Schedules {
			if _, err := svc.Schedules.CreateSchedule(ctx, f.ID, users[s.User], s.FrequencyType); err != nil {
				return err
			}
		}
		logger.Info("Seeded form", zap.String("title", sf.Title), zap.String("form_id", f.ID.Hex()))
	}

	if id, ok := formIDs["Purchase request"]; ok {
		res, err := svc.Approvals.Submit(ctx, id, users["requester"])
		if err != nil {
			return err
		}
		logger.Info("Submitted demo response",
			zap.String("response_id", res.Response.ID.Hex()),
			zap.Int("instances", len(res.Instances)),
		)
	}

	utils.SetSecret(cfg.JWTSecret)
	for name, id := range users {
		token, err := utils.GenerateToken(id, name)
		if err != nil {
			return err
		}
		logger.Info("Demo user", zap.String("name", name), zap.String("user_id", id.Hex()), zap.String("token", token))
	}
	return nil
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewTransactor,

			audit.NewAuditRepository,
			form.NewFormRepository,
			template.NewTemplateRepository,
			requirement.NewRequirementRepository,
			approval.NewApprovalRepository,
			approval.NewPendingReassigner,
			notification.NewNotificationRepository,
			notification.NewRuleRepository,
			moderator.NewModeratorRepository,
			schedule.NewScheduleRepository,

			notification.NewHub,
			audit.NewAuditService,
			form.NewFormService,
			template.NewTemplateService,
			requirement.NewRequirementService,
			notification.NewNotificationService,
			approval.NewApprovalService,
			moderator.NewModeratorService,
			schedule.NewScheduleService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
