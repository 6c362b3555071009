package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"surveyapi/internal/config"
	"surveyapi/internal/model"
	"surveyapi/internal/repository"
	"surveyapi/internal/storage"
)

const (
	noAnswer      = "No answer"
	anonymousUser = "Anonymous"
	exportTimeFmt = "2006-01-02 15:04:05"
)

var tracer = otel.Tracer("surveyapi/service")

// ParticipationRow is one entry of the participation listing.
type ParticipationRow struct {
	ID           string                   `json:"id"`
	User         string                   `json:"user"`
	Date         time.Time                `json:"date"`
	State        model.ParticipationState `json:"state"`
	TotalAnswers int                      `json:"total_answers"`
}

// ParticipationPage is a page-numbered slice of an instance's participations.
type ParticipationPage struct {
	Results  []ParticipationRow `json:"results"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	HasNext  bool               `json:"has_next"`
}

// ExportData flattens completed participations into one row per respondent.
type ExportData struct {
	SurveyTitle    string              `json:"survey_title"`
	Headers        []string            `json:"headers"`
	Data           []map[string]string `json:"data"`
	TotalResponses int                 `json:"total_responses"`
	ExportDate     time.Time           `json:"export_date"`
}

// WriteCSV writes the export as a semicolon separated file with a header row.
func (e *ExportData) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(e.Headers); err != nil {
		return err
	}
	record := make([]string, len(e.Headers))
	for _, row := range e.Data {
		for i, h := range e.Headers {
			record[i] = row[h]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportView is a stored report with a time-limited download link.
type ReportView struct {
	model.Report
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ConfigurationService gives survey owners access to the responses of their instances.
type ConfigurationService interface {
	Questions(ctx context.Context, actor *model.User, instanceID string) ([]model.Question, error)
	// Participations pages newest first; page starts at 1.
	Participations(ctx context.Context, actor *model.User, instanceID string, page, pageSize int) (*ParticipationPage, error)
	Export(ctx context.Context, actor *model.User, instanceID string) (*ExportData, error)
	DeleteParticipation(ctx context.Context, actor *model.User, instanceID, participationID string) error
	// GenerateReport uploads a fresh CSV export and records it as the instance's report.
	GenerateReport(ctx context.Context, actor *model.User, instanceID string) (*ReportView, error)
	GetReport(ctx context.Context, actor *model.User, instanceID string) (*ReportView, error)
	// DownloadReport streams the stored report file. The caller closes the reader.
	DownloadReport(ctx context.Context, actor *model.User, instanceID string) (io.ReadCloser, storage.ObjectInfo, error)
}

type configurationService struct {
	instances      repository.InstanceRepository
	surveys        repository.SurveyRepository
	participations repository.ParticipationRepository
	reports        repository.ReportRepository
	store          storage.Storage
	urlExpiry      time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewConfigurationService constructs a new ConfigurationService.
func NewConfigurationService(
	instances repository.InstanceRepository,
	surveys repository.SurveyRepository,
	participations repository.ParticipationRepository,
	reports repository.ReportRepository,
	store storage.Storage,
	cfg config.SurveyConfig,
	logger *slog.Logger,
) ConfigurationService {
	expiry := cfg.ReportURLExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &configurationService{
		instances:      instances,
		surveys:        surveys,
		participations: participations,
		reports:        reports,
		store:          store,
		urlExpiry:      expiry,
		logger:         logger.With("component", "configuration"),
		now:            time.Now,
	}
}

func (s *configurationService) Questions(ctx context.Context, actor *model.User, instanceID string) ([]model.Question, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return nil, err
	}
	return s.surveys.ListQuestions(ctx, inst.SurveyID)
}

func (s *configurationService) Participations(ctx context.Context, actor *model.User, instanceID string, page, pageSize int) (*ParticipationPage, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	res, err := s.participations.ListByInstance(ctx, inst.ID, repository.PageQuery{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, err
	}
	out := &ParticipationPage{
		Results:  make([]ParticipationRow, 0, len(res.Items)),
		Total:    res.Total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  page*pageSize < res.Total,
	}
	for _, p := range res.Items {
		out.Results = append(out.Results, ParticipationRow{
			ID:           p.ID,
			User:         displayName(p),
			Date:         p.Date,
			State:        p.State,
			TotalAnswers: p.TotalAnswers,
		})
	}
	return out, nil
}

func (s *configurationService) Export(ctx context.Context, actor *model.User, instanceID string) (*ExportData, error) {
	ctx, span := tracer.Start(ctx, "ConfigurationService.Export")
	defer span.End()
	span.SetAttributes(attribute.String("instance.id", instanceID))

	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return nil, err
	}
	data, err := s.export(ctx, inst)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("export.rows", data.TotalResponses))
	return data, nil
}

func (s *configurationService) export(ctx context.Context, inst *model.SurveyInstance) (*ExportData, error) {
	questions, err := s.surveys.ListQuestions(ctx, inst.SurveyID)
	if err != nil {
		return nil, err
	}
	parts, err := s.participations.ListCompleted(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.participations.ListCompletedAnswers(ctx, inst.ID)
	if err != nil {
		return nil, err
	}

	byParticipation := make(map[string]map[string]model.Answer, len(parts))
	for _, a := range answers {
		m, ok := byParticipation[a.ParticipationID]
		if !ok {
			m = make(map[string]model.Answer)
			byParticipation[a.ParticipationID] = m
		}
		m[a.QuestionID] = a
	}

	headers := []string{"user", "date", "state"}
	for _, q := range questions {
		headers = append(headers, "question_"+q.ID)
	}

	rows := make([]map[string]string, 0, len(parts))
	for _, p := range parts {
		row := map[string]string{
			"user":  displayName(p),
			"date":  p.Date.UTC().Format(exportTimeFmt),
			"state": string(p.State),
		}
		given := byParticipation[p.ID]
		for _, q := range questions {
			a, found := given[q.ID]
			row["question_"+q.ID] = exportCell(a, found)
		}
		rows = append(rows, row)
	}

	title := ""
	if inst.Survey != nil {
		title = inst.Survey.Title
	}
	return &ExportData{
		SurveyTitle:    title,
		Headers:        headers,
		Data:           rows,
		TotalResponses: len(rows),
		ExportDate:     s.now().UTC(),
	}, nil
}

// exportCell renders an answer as text: selected option contents joined by ", ", or the open text.
func exportCell(a model.Answer, found bool) string {
	if !found {
		return noAnswer
	}
	if len(a.SelectedOptions) > 0 {
		names := make([]string, 0, len(a.SelectedOptions))
		for _, o := range a.SelectedOptions {
			names = append(names, o.OptionContent)
		}
		return strings.Join(names, ", ")
	}
	if a.Content != nil && strings.TrimSpace(*a.Content) != "" {
		return *a.Content
	}
	return noAnswer
}

func displayName(p model.Participation) string {
	if p.UserID == nil || p.Username == "" {
		return anonymousUser
	}
	return p.Username
}

func (s *configurationService) DeleteParticipation(ctx context.Context, actor *model.User, instanceID, participationID string) error {
	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return err
	}
	return notFound(s.participations.Delete(ctx, inst.ID, participationID))
}

func (s *configurationService) GenerateReport(ctx context.Context, actor *model.User, instanceID string) (*ReportView, error) {
	ctx, span := tracer.Start(ctx, "ConfigurationService.GenerateReport")
	defer span.End()
	span.SetAttributes(attribute.String("instance.id", instanceID))

	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return nil, err
	}
	data, err := s.export(ctx, inst)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var buf bytes.Buffer
	if err := data.WriteCSV(&buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	key := storage.ReportKey(inst.ID, uuid.NewString()+".csv")
	if _, err := s.store.Put(ctx, key, &buf, storage.PutObjectOptions{
		Size:        int64(buf.Len()),
		ContentType: "text/csv",
		Metadata:    map[string]string{"instance-id": inst.ID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, fmt.Errorf("upload report: %w", err)
	}

	counts, err := s.participations.Counts(ctx, inst.ID)
	if err != nil {
		s.cleanup(key)
		return nil, err
	}

	previous, err := s.reports.FindByInstance(ctx, inst.ID)
	if err != nil && notFound(err) != ErrNotFound {
		s.cleanup(key)
		return nil, err
	}

	report, err := s.reports.Upsert(ctx, &model.Report{
		ID:         uuid.NewString(),
		InstanceID: inst.ID,
		Date:       s.now().UTC(),
		Summary: fmt.Sprintf("%d completed of %d participations, %d questions",
			counts.Completed, counts.Total, len(data.Headers)-3),
		StoragePath: key,
	})
	if err != nil {
		s.cleanup(key)
		return nil, fmt.Errorf("save report: %w", err)
	}
	if previous != nil && previous.StoragePath != key {
		s.cleanup(previous.StoragePath)
	}

	s.logger.InfoContext(ctx, "report_generated",
		"instance_id", inst.ID,
		"storage_path", key,
		"rows", data.TotalResponses,
	)
	return s.withURL(ctx, report)
}

func (s *configurationService) GetReport(ctx context.Context, actor *model.User, instanceID string) (*ReportView, error) {
	report, err := s.loadReport(ctx, actor, instanceID)
	if err != nil {
		return nil, err
	}
	return s.withURL(ctx, report)
}

func (s *configurationService) DownloadReport(ctx context.Context, actor *model.User, instanceID string) (io.ReadCloser, storage.ObjectInfo, error) {
	report, err := s.loadReport(ctx, actor, instanceID)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	return s.store.Get(ctx, report.StoragePath)
}

func (s *configurationService) loadReport(ctx context.Context, actor *model.User, instanceID string) (*model.Report, error) {
	inst, err := loadManagedInstance(ctx, s.instances, actor, instanceID)
	if err != nil {
		return nil, err
	}
	report, err := s.reports.FindByInstance(ctx, inst.ID)
	if err != nil {
		return nil, notFound(err)
	}
	return report, nil
}

func (s *configurationService) withURL(ctx context.Context, report *model.Report) (*ReportView, error) {
	url, err := s.store.PresignGet(ctx, report.StoragePath, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign report: %w", err)
	}
	return &ReportView{
		Report:      *report,
		DownloadURL: url,
		ExpiresAt:   s.now().UTC().Add(s.urlExpiry),
	}, nil
}

// cleanup removes an object that is no longer referenced. Failures are only logged.
func (s *configurationService) cleanup(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("report_cleanup_failed", "storage_path", key, "error", err)
	}
}
