package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"proctorx_backend/internals/features/users/user_profiles/dto"
	"proctorx_backend/internals/features/users/user_profiles/service"
	helper "proctorx_backend/internals/helpers"
)

type AdminController struct {
	Svc       *service.Service
	Validator *validator.Validate
}

func NewAdminController(svc *service.Service) *AdminController {
	return &AdminController{Svc: svc, Validator: validator.New()}
}

// GET /api/admin/dashboard
func (ctl *AdminController) Dashboard(c *fiber.Ctx) error {
	stats, err := ctl.Svc.Dashboard(c.UserContext())
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonOK(c, "ok", stats)
}

// GET /api/admin/users?page=&per_page=
func (ctl *AdminController) ListUsers(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	users, total, err := ctl.Svc.ListUsers(c.UserContext(), p.Offset, p.Limit)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	pg := helper.BuildPaginationFromOffset(total, p.Offset, p.Limit)
	return helper.JsonList(c, "ok", users, &pg)
}

// PUT /api/admin/users/:id/role
func (ctl *AdminController) UpdateRole(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid user id")
	}
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	req.Normalize()
	if err := ctl.Validator.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Invalid role")
	}

	user, err := ctl.Svc.UpdateRole(c.UserContext(), id, req.Role)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	return helper.JsonUpdated(c, "User role updated", fiber.Map{"user": user})
}
