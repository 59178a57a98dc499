package httpserver

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/internal/jwtmiddleware"
	"github.com/Skotchmaster/job_tracker/internal/pdf"
	"github.com/Skotchmaster/job_tracker/internal/service"
	"github.com/Skotchmaster/job_tracker/internal/transport"
	"github.com/Skotchmaster/job_tracker/pkg/logging"
)

type ResumeHTTP struct {
	Svc *service.ResumeService
}

func (h *ResumeHTTP) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "resume_upload")

	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, "resume_upload_error", &service.Error{Kind: service.ErrUnprocessableInput, Msg: "a PDF file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, "resume_upload_error", &service.Error{Kind: service.ErrUnprocessableInput, Msg: "cannot read uploaded file"})
	}
	defer f.Close()

	// one byte over the cap is enough for the service to reject it
	data, err := io.ReadAll(io.LimitReader(f, pdf.MaxSize+1))
	if err != nil {
		return fail(c, "resume_upload_error", &service.Error{Kind: service.ErrUnprocessableInput, Msg: "cannot read uploaded file"})
	}

	res, err := h.Svc.AnalyzeResume(ctx, userID, data, fh.Filename, fh.Header.Get(echo.HeaderContentType), c.FormValue("jd"))
	if err != nil {
		return fail(c, "resume_upload_failed", err)
	}

	l.Info("resume_analyzed", "analysis_id", res.ID, "score", res.Score)
	return c.JSON(http.StatusCreated, res)
}

func (h *ResumeHTTP) Compare(c echo.Context) error {
	if _, ok := jwtmiddleware.UserID(c); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	var req transport.CompareRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, "resume_compare_error", err)
	}

	res, err := h.Svc.CompareWithJobDescription(c.Request().Context(), req.JD, req.ResumeText)
	if err != nil {
		return fail(c, "resume_compare_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ResumeHTTP) Analyses(c echo.Context) error {
	userID, ok := jwtmiddleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	items, err := h.Svc.ListAnalyses(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "resume_analyses_error", err)
	}
	return c.JSON(http.StatusOK, items)
}
