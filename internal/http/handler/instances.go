package handler

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

type closureRequest struct {
	ClosureDate *time.Time `json:"closure_date"`
}

type stateRequest struct {
	State       string     `json:"state"`
	ClosureDate *time.Time `json:"closure_date"`
}

// ListInstances lists the caller's instances, optionally filtered by ?state=.
func ListInstances(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.List(c.UserContext(), middleware.CurrentUser(c), c.Query("state"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}

func CreateInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateInstanceInput
		if !parseBody(c, &in) {
			return nil
		}
		v, err := svc.Create(c.UserContext(), middleware.CurrentUser(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

// GetInstance returns the detail view, questions included.
func GetInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		v, err := svc.Get(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

// UpdateInstance changes the closure date. An explicit null turns the instance
// into a draft; a body without closure_date leaves it untouched.
func UpdateInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var fields map[string]json.RawMessage
		if !parseBody(c, &fields) {
			return nil
		}
		raw, present := fields["closure_date"]
		if !present {
			v, err := svc.Get(c.UserContext(), middleware.CurrentUser(c), id)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(v)
		}
		var closure *time.Time
		if err := json.Unmarshal(raw, &closure); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "closure_date must be an RFC 3339 timestamp or null")
		}
		v, err := svc.UpdateClosureDate(c.UserContext(), middleware.CurrentUser(c), id, closure)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func DeleteInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		if err := svc.Delete(c.UserContext(), middleware.CurrentUser(c), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func DuplicateInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		v, err := svc.Duplicate(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(v)
	}
}

func SetInstanceState(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var in stateRequest
		if !parseBody(c, &in) {
			return nil
		}
		v, err := svc.SetState(c.UserContext(), middleware.CurrentUser(c), id, in.State, in.ClosureDate)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(v)
	}
}

func lifecycleResponse(c *fiber.Ctx, msg string, v *service.InstanceView) error {
	return c.JSON(fiber.Map{
		"message":      msg,
		"closure_date": v.ClosureDate,
		"state":        v.State,
	})
}

func CloseInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		v, err := svc.Close(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return lifecycleResponse(c, "Survey instance closed successfully", v)
	}
}

// ReopenInstance accepts an optional body with a future closure_date.
func ReopenInstance(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		var in closureRequest
		if len(c.Body()) > 0 && !parseBody(c, &in) {
			return nil
		}
		v, err := svc.Reopen(c.UserContext(), middleware.CurrentUser(c), id, in.ClosureDate)
		if err != nil {
			return fail(c, err)
		}
		return lifecycleResponse(c, "Survey instance reopened successfully", v)
	}
}

func InstanceStatistics(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		st, err := svc.Statistics(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(st)
	}
}

func InstancePublicURL(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		u, err := svc.PublicURL(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(u)
	}
}

func ListOpenInstances(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := svc.ListOpen(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}

func ListInstancesBySurvey(svc service.InstanceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		surveyID, ok := uuidParam(c, "surveyId")
		if !ok {
			return nil
		}
		items, err := svc.ListBySurvey(c.UserContext(), middleware.CurrentUser(c), surveyID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	}
}
