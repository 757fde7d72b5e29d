package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"proctorx_backend/internals/features/users/auth/dto"
	"proctorx_backend/internals/features/users/auth/service"
	helper "proctorx_backend/internals/helpers"
	helperAuth "proctorx_backend/internals/helpers/auth"
)

type AuthController struct {
	Svc       *service.Service
	Validator *validator.Validate
}

func NewAuthController(svc *service.Service) *AuthController {
	return &AuthController{Svc: svc, Validator: validator.New()}
}

// POST /api/auth/register
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ac.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	user, err := ac.Svc.Register(c.UserContext(), req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Registration successful. Please check your email for verification.", fiber.Map{"user": user})
}

// POST /api/auth/login
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ac.Validator.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	res, err := ac.Svc.Login(c.UserContext(), req)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Login successful", res)
}

// POST /api/auth/logout
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := ac.Svc.Logout(c.UserContext(), helperAuth.GetAccessToken(c)); err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "Logout successful", nil)
}

// GET /api/auth/me
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	email, _ := c.Locals(helperAuth.LocEmail).(string)

	user, err := ac.Svc.Me(c.UserContext(), userID, email)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", fiber.Map{"user": user})
}
