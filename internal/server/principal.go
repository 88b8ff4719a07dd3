package server

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

// PrincipalHeader carries the authenticated user id set by the upstream proxy
const PrincipalHeader = "X-User-ID"

const principalKey = "principal"

func requirePrincipal(c fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Get(PrincipalHeader), 10, 64)
	if err != nil || id == 0 {
		return &httpError{status: fiber.StatusUnauthorized, detail: "Authentication credentials were not provided."}
	}
	c.Locals(principalKey, uint(id))
	return c.Next()
}

func principal(c fiber.Ctx) uint {
	id, _ := c.Locals(principalKey).(uint)
	return id
}

func idParam(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest("invalid id")
	}
	return uint(id), nil
}
