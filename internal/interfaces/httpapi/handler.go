package httpapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/gym-league/internal/platform/logging"
	"github.com/riskibarqy/gym-league/internal/usecase"
)

// Services groups the use cases served over HTTP.
type Services struct {
	Tournaments     *usecase.TournamentService
	Registrations   *usecase.RegistrationService
	Scoring         *usecase.ScoringService
	Heats           *usecase.HeatService
	Results         *usecase.ResultService
	Rankings        *usecase.RankingService
	Refresher       *usecase.RankingRefreshService
	PersonalRecords *usecase.PersonalRecordService
	Certificates    *usecase.CertificateService
}

type Handler struct {
	tournamentService     *usecase.TournamentService
	registrationService   *usecase.RegistrationService
	scoringService        *usecase.ScoringService
	heatService           *usecase.HeatService
	resultService         *usecase.ResultService
	rankingService        *usecase.RankingService
	refreshService        *usecase.RankingRefreshService
	personalRecordService *usecase.PersonalRecordService
	certificateService    *usecase.CertificateService
	logger                *logging.Logger
	validator             *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		tournamentService:     services.Tournaments,
		registrationService:   services.Registrations,
		scoringService:        services.Scoring,
		heatService:           services.Heats,
		resultService:         services.Results,
		rankingService:        services.Rankings,
		refreshService:        services.Refresher,
		personalRecordService: services.PersonalRecords,
		certificateService:    services.Certificates,
		logger:                logger.Named("httpapi"),
		validator:             validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// decodeJSON reads a strict JSON body and validates it. An empty body is allowed
// when allowEmpty is set and leaves dst untouched.
func (h *Handler) decodeJSON(ctx context.Context, r *http.Request, dst any, allowEmpty bool) error {
	decoder := jsoniter.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if allowEmpty && err == io.EOF {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func queryInt(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", usecase.ErrInvalidInput, name)
	}
	return &v, nil
}

func queryString(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

func parseTime(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339", usecase.ErrInvalidInput, field)
	}
	return t.UTC(), nil
}

func parseOptionalTime(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseTime(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
