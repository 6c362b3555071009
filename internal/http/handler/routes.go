package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"surveyapi/internal/http/middleware"
	"surveyapi/internal/service"
)

// Pinger is satisfied by *sql.DB and storage.Storage.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Auth          service.AuthService
	Users         service.UserService
	Surveys       service.SurveyService
	Instances     service.InstanceService
	Configuration service.ConfigurationService
	Participation service.ParticipationService

	DB      Pinger
	Storage Pinger
	Cookies CookieConfig
}

// RegisterRoutes attaches every API route to app. Callers are resolved from
// their token first; each route then applies its own guard.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Use(middleware.Authenticate(d.Auth))

	authed := middleware.RequireAuth()
	client := middleware.RequireClient()
	admin := middleware.RequireAdmin()

	app.Get("/", Hello())
	app.Get("/health", HealthCheck(d.DB, d.Storage))
	app.Get("/healthz", LivenessProbe())

	// auth
	app.Post("/register", Register(d.Auth))
	app.Get("/activate/:uid/:token", Activate(d.Auth))
	app.Post("/token", Login(d.Auth, d.Cookies))
	app.Post("/token/refresh", RefreshToken(d.Auth, d.Cookies))
	app.Post("/logout", Logout(d.Auth, d.Cookies))
	app.Post("/password-reset", RequestPasswordReset(d.Auth))
	app.Post("/password-reset/confirm", ConfirmPasswordReset(d.Auth))
	app.Post("/change-password", authed, ChangePassword(d.Auth))
	app.Post("/password-validate", ValidatePassword(d.Auth))

	// users and roles
	app.Get("/users/my-profile", authed, GetProfile(d.Users))
	app.Put("/users/my-profile", authed, UpdateProfile(d.Users))
	app.Patch("/users/my-profile", authed, UpdateProfile(d.Users))
	app.Get("/roles", admin, ListRoles(d.Users))

	users := app.Group("/admin/users", admin)
	users.Get("/", ListUsers(d.Users))
	users.Post("/", CreateUser(d.Users))
	users.Get("/:id", GetUser(d.Users))
	users.Put("/:id", UpdateUser(d.Users))
	users.Patch("/:id", UpdateUser(d.Users))
	users.Delete("/:id", DeleteUser(d.Users))
	users.Post("/:id/activate", SetUserActive(d.Users, true))
	users.Post("/:id/deactivate", SetUserActive(d.Users, false))

	// surveys; /surveys/:id/public and /submit are open to anonymous respondents
	app.Get("/surveys", client, ListSurveys(d.Surveys))
	app.Post("/surveys", client, CreateSurvey(d.Surveys))
	app.Get("/surveys/:id", client, GetSurvey(d.Surveys))
	app.Put("/surveys/:id", client, UpdateSurvey(d.Surveys))
	app.Patch("/surveys/:id", client, UpdateSurvey(d.Surveys))
	app.Delete("/surveys/:id", client, DeleteSurvey(d.Surveys))
	app.Get("/surveys/:id/public", PublicSurvey(d.Participation))
	app.Post("/surveys/:id/submit", SubmitSurvey(d.Participation))
	app.Get("/surveys/:surveyId/instances/:id/stats", InstanceStats(d.Participation))

	// instances
	app.Get("/survey-instances/public/open", ListOpenInstances(d.Instances))
	app.Get("/survey-instances", authed, ListInstances(d.Instances))
	app.Post("/survey-instances", authed, CreateInstance(d.Instances))
	app.Get("/survey-instances/by-survey/:surveyId", authed, ListInstancesBySurvey(d.Instances))
	app.Get("/survey-instances/:id", authed, GetInstance(d.Instances))
	app.Get("/survey-instances/:id/configuration", authed, GetInstance(d.Instances))
	app.Put("/survey-instances/:id", authed, UpdateInstance(d.Instances))
	app.Patch("/survey-instances/:id", authed, UpdateInstance(d.Instances))
	app.Delete("/survey-instances/:id", authed, DeleteInstance(d.Instances))
	app.Post("/survey-instances/:id/duplicate", authed, DuplicateInstance(d.Instances))
	app.Patch("/survey-instances/:id/state", authed, SetInstanceState(d.Instances))
	app.Post("/survey-instances/:id/close", authed, CloseInstance(d.Instances))
	app.Post("/survey-instances/:id/reopen", authed, ReopenInstance(d.Instances))
	app.Get("/survey-instances/:id/statistics", authed, InstanceStatistics(d.Instances))
	app.Get("/survey-instances/:id/public-url", authed, InstancePublicURL(d.Instances))

	// owner tools
	const cfg = "/survey-configuration/:id"
	app.Get(cfg+"/questions", authed, ConfigurationQuestions(d.Configuration))
	app.Get(cfg+"/participations", authed, ConfigurationParticipations(d.Configuration))
	app.Delete(cfg+"/participations/:participationId", authed, DeleteParticipation(d.Configuration))
	app.Get(cfg+"/export-data", authed, ExportData(d.Configuration))
	app.Post(cfg+"/report", authed, GenerateReport(d.Configuration))
	app.Get(cfg+"/report", authed, GetReport(d.Configuration))
	app.Get(cfg+"/report/download", authed, DownloadReport(d.Configuration))

	app.Get("/participations/:id/results", authed, ParticipationResults(d.Participation))
}

// uuidParam returns the named path parameter, or false after writing a 400 when it is not a UUID.
func uuidParam(c *fiber.Ctx, name string) (string, bool) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		return "", false
	}
	return id, true
}

// intQuery parses an optional integer query parameter.
func intQuery(c *fiber.Ctx, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_"+strings.ToUpper(name), "invalid "+name)
		return 0, false
	}
	return v, true
}

// parseBody decodes the JSON body into v, writing a 400 on failure.
func parseBody(c *fiber.Ctx, v any) bool {
	if err := c.BodyParser(v); err != nil {
		_ = writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return false
	}
	return true
}
