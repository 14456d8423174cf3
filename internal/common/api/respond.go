package api

import (
	"go-approvals/internal/common/apperror"
	"go-approvals/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusFor maps an engine error kind onto an HTTP status code.
func StatusFor(err error) int {
	if e, ok := err.(*fiber.Error); ok {
		return e.Code
	}
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindDuplicate, apperror.KindInvalidTransition, apperror.KindConflict:
		return fiber.StatusConflict
	case apperror.KindIneligible:
		return fiber.StatusForbidden
	case apperror.KindInvalid:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// Error writes err as {"error", "kind"} with the mapped status.
func Error(ctx *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	if kind := apperror.KindOf(err); kind != "" {
		body["kind"] = kind
	}
	return ctx.Status(StatusFor(err)).JSON(body)
}

// ParamID parses a path parameter as an ObjectID.
func ParamID(ctx *fiber.Ctx, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(ctx.Params(name))
	if err != nil {
		return primitive.NilObjectID, apperror.Invalid(name, "invalid id %q", ctx.Params(name))
	}
	return oid, nil
}

// ActorID returns the authenticated user id injected by the auth middleware.
func ActorID(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "missing user claims")
	}
	oid, err := claims.ActorID()
	if err != nil {
		return primitive.NilObjectID, fiber.NewError(fiber.StatusUnauthorized, "invalid user id in token")
	}
	return oid, nil
}
