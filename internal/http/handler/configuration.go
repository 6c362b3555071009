package handler

import (
	"fmt"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

func ConfigurationQuestions(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		qs, err := svc.Questions(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(qs)
	}
}

// ConfigurationParticipations pages through participations with page & page_size.
func ConfigurationParticipations(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		page, ok := intQuery(c, "page", 1)
		if !ok {
			return nil
		}
		size, ok := intQuery(c, "page_size", 20)
		if !ok {
			return nil
		}
		res, err := svc.Participations(c.UserContext(), middleware.CurrentUser(c), id, page, size)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func DeleteParticipation(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		pid, ok := uuidParam(c, "participationId")
		if !ok {
			return nil
		}
		if err := svc.DeleteParticipation(c.UserContext(), middleware.CurrentUser(c), id, pid); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ExportData serves completed responses as JSON, or as a CSV attachment with ?format=csv.
func ExportData(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		format := strings.ToLower(c.Query("format", "json"))
		if format != "json" && format != "csv" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be json or csv")
		}
		data, err := svc.Export(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		if format == "json" {
			return c.JSON(data)
		}
		c.Attachment(fmt.Sprintf("survey_%s_responses.csv", id))
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		return data.WriteCSV(c)
	}
}

func GenerateReport(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		r, err := svc.GenerateReport(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

func GetReport(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		r, err := svc.GetReport(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(r)
	}
}

// DownloadReport streams the stored report file through the API for clients
// that cannot reach the object store directly.
func DownloadReport(svc service.ConfigurationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := uuidParam(c, "id")
		if !ok {
			return nil
		}
		body, info, err := svc.DownloadReport(c.UserContext(), middleware.CurrentUser(c), id)
		if err != nil {
			return fail(c, err)
		}
		ct := info.ContentType
		if ct == "" {
			ct = "text/csv"
		}
		c.Attachment(path.Base(info.Key))
		c.Set(fiber.HeaderContentType, ct)
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// fasthttp closes the stream once the body is written.
		return c.SendStream(body, size)
	}
}
