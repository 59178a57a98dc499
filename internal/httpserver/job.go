package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/internal/jwtmiddleware"
	"github.com/Skotchmaster/job_tracker/internal/service"
	"github.com/Skotchmaster/job_tracker/internal/transport"
	"github.com/Skotchmaster/job_tracker/internal/util"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

type JobHTTP struct {
	Svc *service.JobService
}

func (h *JobHTTP) List(c echo.Context) error {
	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	jobs, err := h.Svc.List(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "job_list_error", err)
	}
	return c.JSON(http.StatusOK, jobs)
}

func (h *JobHTTP) Stats(c echo.Context) error {
	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	stats, err := h.Svc.Stats(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "job_stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *JobHTTP) Search(c echo.Context) error {
	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	page := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))

	total, jobs, err := h.Svc.Search(c.Request().Context(), userID, c.QueryParam("q"), page.Offset(), page.Size)
	if err != nil {
		return fail(c, "job_search_error", err)
	}
	return c.JSON(http.StatusOK, transport.SearchResponse{
		Total:   total,
		Page:    page.Number,
		Size:    page.Size,
		HasNext: page.HasNext(total),
		Jobs:    jobs,
	})
}

func (h *JobHTTP) Get(c echo.Context) error {
	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, "job_get_error", err)
	}
	job, err := h.Svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return fail(c, "job_get_error", err)
	}
	return c.JSON(http.StatusOK, job)
}

func (h *JobHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "job_create")

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	var req transport.CreateJobRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "job_create_error", err)
	}

	job, err := h.Svc.Create(ctx, userID, req)
	if err != nil {
		return fail(c, "job_create_error", err)
	}

	l.Info("create_job_success", "job_id", job.ID)
	return c.JSON(http.StatusCreated, job)
}

func (h *JobHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "job_patch")

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, "job_patch_error", err)
	}
	var req transport.PatchJobRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "job_patch_error", err)
	}

	job, err := h.Svc.Update(ctx, userID, id, req)
	if err != nil {
		return fail(c, "job_patch_error", err)
	}

	l.Info("patch_job_success", "job_id", job.ID)
	return c.JSON(http.StatusOK, job)
}

func (h *JobHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "job_delete")

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	id, err := jobID(c)
	if err != nil {
		return fail(c, "job_delete_error", err)
	}
	if err := h.Svc.Delete(ctx, userID, id); err != nil {
		return fail(c, "job_delete_error", err)
	}

	l.Info("delete_job_success", "job_id", id)
	return c.JSON(http.StatusOK, transport.OKResponse{OK: true})
}

// jobID treats a malformed id like a missing job.
func jobID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, &service.Error{Kind: service.ErrNotFound, Msg: "job not found"}
	}
	return id, nil
}
