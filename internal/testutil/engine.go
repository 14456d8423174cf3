package testutil

import (
	"go-approvals/internal/features/approval"
	"go-approvals/internal/features/form"
	"go-approvals/internal/features/moderator"
	"go-approvals/internal/features/notification"
	"go-approvals/internal/features/requirement"
	"go-approvals/internal/features/schedule"
	"go-approvals/internal/features/template"
	"go-approvals/internal/features/transfer"
)

// Engine wires the approval services over in-memory stores.
type Engine struct {
	Forms        *FormStore
	Templates    *TemplateStore
	Requirements *RequirementStore
	Instances    *InstanceStore
	Rules        *RuleStore
	Inbox        *InboxStore
	Hub          *notification.Hub
	Schedules    *ScheduleStore
	Moderators   *ModeratorStore
	Audit        *AuditRecorder
	Tx           *Transactor

	FormService         form.FormService
	TemplateService     template.TemplateService
	RequirementService  requirement.RequirementService
	NotificationService notification.NotificationService
	ApprovalService     approval.ApprovalService
	ScheduleService     schedule.ScheduleService
	ModeratorService    moderator.ModeratorService
	TransferService     transfer.TransferService
}

func NewEngine() *Engine {
	e := &Engine{
		Forms:        NewFormStore(),
		Templates:    NewTemplateStore(),
		Requirements: NewRequirementStore(),
		Instances:    NewInstanceStore(),
		Rules:        NewRuleStore(),
		Inbox:        NewInboxStore(),
		Hub:          notification.NewHub(),
		Schedules:    NewScheduleStore(),
		Moderators:   NewModeratorStore(),
		Audit:        &AuditRecorder{},
	}
	e.Tx = NewTransactor(e.Forms, e.Templates, e.Requirements, e.Instances, e.Rules, e.Schedules, e.Moderators)

	log := Logger()
	e.FormService = form.NewFormService(e.Forms)
	e.TemplateService = template.NewTemplateService(e.Templates, e.Forms, e.Instances, e.Tx, e.Audit, log)
	e.RequirementService = requirement.NewRequirementService(e.Requirements, e.Forms, e.Audit, log)
	e.NotificationService = notification.NewNotificationService(e.Inbox, e.Rules, e.Hub, log)
	e.ApprovalService = approval.NewApprovalService(
		e.Instances, e.Forms, e.TemplateService, e.RequirementService, e.NotificationService, e.Tx, e.Audit, log,
	)
	e.ScheduleService = schedule.NewScheduleService(e.Schedules, e.Forms, e.Audit, log)
	e.ModeratorService = moderator.NewModeratorService(e.Moderators, e.Forms, e.Audit, log)
	e.TransferService = transfer.NewTransferService(
		e.Schedules, e.Templates, e.Rules, e.Moderators, e.Forms, e.FormService, e.Tx, e.Audit, log,
	)
	return e
}
