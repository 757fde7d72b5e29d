package controller

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/clients/judge0"
	"proctorx_backend/internals/features/code/dto"
	helper "proctorx_backend/internals/helpers"
)

type Runner interface {
	Execute(ctx context.Context, req judge0.Request) (*judge0.Result, error)
	Languages(ctx context.Context) []judge0.Language
}

type CodeController struct {
	Runner    Runner
	Validator *validator.Validate
}

func NewCodeController(r Runner) *CodeController {
	return &CodeController{Runner: r, Validator: validator.New()}
}

// POST /api/code/execute
func (ctl *CodeController) Execute(c *fiber.Ctx) error {
	var req dto.ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := ctl.Runner.Execute(c.UserContext(), req.ToJudge())
	if err != nil {
		switch {
		case judge0.IsRateLimitError(err):
			log.Printf("[WARN] code execute rate limited: %v", err)
		case judge0.IsTimeoutError(err):
			log.Printf("[WARN] code execute timed out: %v", err)
		default:
			log.Printf("[ERROR] code execute: %v", err)
		}
		return helper.JsonError(c, fiber.StatusInternalServerError, "Code execution failed")
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /api/code/languages
func (ctl *CodeController) Languages(c *fiber.Ctx) error {
	return helper.JsonOK(c, "ok", ctl.Runner.Languages(c.UserContext()))
}
