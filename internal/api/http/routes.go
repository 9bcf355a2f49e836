package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/i474232898/temperature-anomaly-analysis/internal/fetch"
	"github.com/i474232898/temperature-anomaly-analysis/internal/monitor"
	"github.com/i474232898/temperature-anomaly-analysis/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *monitor.Service) {
	v1 := app.Group("/api/v1")

	v1.Post("/datasets", func(c *fiber.Ctx) error {
		file, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "multipart field 'file' is required")
		}

		f, err := file.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "failed to open uploaded file")
		}
		defer f.Close()

		ds, err := service.UploadDataset(f)
		if err != nil {
			// Schema, parse and empty-file errors are all the
			// uploader's to fix.
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		counts := make(map[string]int, len(ds.Cities))
		for city, ser := range ds.Cities {
			counts[city] = len(ser)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"id":         ds.ID,
			"uploadedAt": ds.UploadedAt,
			"cities":     counts,
		})
	})

	v1.Get("/anomalies", func(c *fiber.Ctx) error {
		var req analysisQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		enriched, err := service.Anomalies(req.Dataset, req.City, req.Window, req.Sigma)
		if err != nil {
			return mapDataErr(err)
		}

		return c.JSON(fiber.Map{
			"city":   req.City,
			"window": orDefault(req.Window, service.DefaultWindow()),
			"sigma":  orDefaultFloat(req.Sigma, service.DefaultSigma()),
			"points": enriched,
		})
	})

	v1.Get("/baseline", func(c *fiber.Ctx) error {
		var req analysisQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		baseline, ok, err := service.Baseline(req.Dataset, req.City, req.Sigma)
		if err != nil {
			return mapDataErr(err)
		}
		if !ok {
			return c.JSON(fiber.Map{
				"city":       req.City,
				"determined": false,
			})
		}

		return c.JSON(fiber.Map{
			"city":       req.City,
			"determined": true,
			"baseline":   baseline,
		})
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		var req currentQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := service.ClassifyCurrent(c.Context(), req.Dataset, req.City, req.mode())
		if err != nil {
			return mapFetchErr(err)
		}

		return c.JSON(result)
	})

	v1.Get("/weather/verdicts", func(c *fiber.Ctx) error {
		city := c.Query("city")
		if city == "" {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		verdicts, err := service.Verdicts(city)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no verdict history for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch verdict history")
		}

		return c.JSON(fiber.Map{
			"city":     city,
			"verdicts": verdicts,
		})
	})
}

// analysisQuery holds query parameters for the anomaly and baseline
// endpoints. Window/Sigma of zero select the configured defaults.
type analysisQuery struct {
	Dataset uuid.UUID `validate:"required"`
	City    string    `validate:"required"`
	Window  int       `validate:"omitempty,min=1"`
	Sigma   float64   `validate:"omitempty,gt=0"`
}

func (q *analysisQuery) bind(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Query("dataset"))
	if err != nil {
		return errors.New("dataset query parameter must be a valid dataset id")
	}
	q.Dataset = id
	q.City = c.Query("city")

	if w := c.Query("window"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n < 1 {
			return errors.New("window must be an integer of at least 1")
		}
		q.Window = n
	}
	if s := c.Query("sigma"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f <= 0 {
			return errors.New("sigma must be a positive number")
		}
		q.Sigma = f
	}

	return validate.Struct(q)
}

// currentQuery holds query parameters for the live classification
// endpoint.
type currentQuery struct {
	Dataset uuid.UUID `validate:"required"`
	City    string    `validate:"required"`
	Mode    string    `validate:"omitempty,oneof=sync concurrent"`
}

func (q *currentQuery) bind(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Query("dataset"))
	if err != nil {
		return errors.New("dataset query parameter must be a valid dataset id")
	}
	q.Dataset = id
	q.City = c.Query("city")
	q.Mode = c.Query("mode")

	return validate.Struct(q)
}

func (q *currentQuery) mode() fetch.Mode {
	if q.Mode == string(fetch.ModeConcurrent) {
		return fetch.ModeConcurrent
	}
	return fetch.ModeSync
}

// mapDataErr maps store/series lookup failures onto HTTP statuses.
func mapDataErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "dataset not found")
	case errors.Is(err, monitor.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no series for requested city")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to compute analysis")
	}
}

// mapFetchErr maps provider failures onto HTTP statuses, keeping the
// typed error taxonomy visible in the response message.
func mapFetchErr(err error) error {
	var apiErr *fetch.APIError
	var netErr *fetch.NetworkError

	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, monitor.ErrCityNotFound):
		return mapDataErr(err)
	case errors.Is(err, fetch.ErrTimeout):
		return fiber.NewError(fiber.StatusGatewayTimeout, err.Error())
	case errors.Is(err, fetch.ErrNoAPIKey):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, fetch.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	case errors.As(err, &apiErr):
		return fiber.NewError(fiber.StatusBadGateway, apiErr.Error())
	case errors.As(err, &netErr):
		return fiber.NewError(fiber.StatusBadGateway, netErr.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to classify current temperature")
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}
