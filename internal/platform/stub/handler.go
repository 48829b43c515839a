package stub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/praxis/internal/domain"
	"github.com/ehr/praxis/internal/listedit"
	"github.com/ehr/praxis/internal/platform/apiclient"
	"github.com/ehr/praxis/internal/platform/auth"
	"github.com/ehr/praxis/internal/validation"
	"github.com/ehr/praxis/pkg/pagination"
)

// response is the practice API envelope.
type response struct {
	Success bool                   `json:"success"`
	Data    any                    `json:"data,omitempty"`
	Message string                 `json:"message,omitempty"`
	Errors  []apiclient.FieldError `json:"errors,omitempty"`
}

// Credentials is the single account accepted by POST /auth/login.
type Credentials struct {
	Username string
	Password string
	// Roles are put into issued tokens. Empty means admin.
	Roles []string
}

// WriteRole is required, besides admin, for every mutating route.
const WriteRole = "staff"

// Handler serves the auth and generic resource routes for every resource in
// the registry.
type Handler struct {
	reg    *domain.Registry
	store  *Store
	jwt    auth.JWTConfig
	creds  Credentials
	logger zerolog.Logger
	now    func() time.Time
}

// NewHandler creates a Handler. Tokens are issued and verified with jwt.
func NewHandler(reg *domain.Registry, store *Store, jwt auth.JWTConfig, creds Credentials, logger zerolog.Logger) *Handler {
	return &Handler{reg: reg, store: store, jwt: jwt, creds: creds, logger: logger, now: time.Now}
}

// RegisterRoutes mounts the resource routes on api. Login is public; every
// other route needs a token.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)

	g := api.Group("", auth.JWTMiddleware(h.jwt))
	g.GET("/auth/me", h.Me)
	g.GET("/:resource", h.List)
	g.GET("/:resource/:id", h.Get)

	write := auth.RequireRole(WriteRole)
	g.POST("/:resource", h.Create, write)
	g.POST("/:resource/upload", h.Upload, write)
	g.PUT("/:resource/:id", h.Update, write)
	g.DELETE("/:resource/:id", h.Delete, write)
	g.POST("/:resource/:id/:action", h.Action, write)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (h *Handler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid login body")
	}
	if body.Username != h.creds.Username || body.Password != h.creds.Password {
		h.logger.Warn().Str("username", body.Username).Msg("login rejected")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	roles := h.creds.Roles
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	token, err := h.jwt.Issue(body.Username, body.Username, roles, h.now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, response{
		Success: true,
		Data:    map[string]any{"token": token, "user": map[string]any{"username": body.Username, "roles": roles}},
	})
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, response{
		Success: true,
		Data:    map[string]any{"username": auth.UserIDFromContext(ctx), "roles": auth.RolesFromContext(ctx)},
	})
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

func (h *Handler) resource(c echo.Context) (*listedit.Resource, error) {
	res, ok := h.reg.Lookup(c.Param("resource"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown resource %q", c.Param("resource")))
	}
	return res, nil
}

func writable(res *listedit.Resource) error {
	if res.ReadOnly {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, res.Title+" is read-only")
	}
	return nil
}

func (h *Handler) List(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	if p := res.RouteTokenParam; p != "" {
		if pg.Filters[p] == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "missing "+p+" token")
		}
		delete(pg.Filters, p)
	}

	items := h.store.List(res.Path, pg.Filters)
	start, end := pg.Window(len(items))
	return c.JSON(http.StatusOK, response{
		Success: true,
		Data:    pagination.NewListData(items[start:end], len(items), pg),
	})
}

func (h *Handler) Get(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	rec, err := h.store.Get(res.Path, res.ID(), c.Param("id"))
	if err != nil {
		return notFound(res, err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: rec})
}

func (h *Handler) Create(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	if err := writable(res); err != nil {
		return err
	}
	body, err := decodeRecord(c)
	if err != nil {
		return err
	}

	rec := res.Payload(body)
	if err := h.check(res, rec); err != nil {
		return err
	}
	if res.Stamp != nil {
		res.Stamp(rec)
	}

	created := h.store.Create(res.Path, res.ID(), rec)
	h.logger.Info().Str("resource", res.Path).Str("id", res.RecordID(created)).Msg("record created")
	return c.JSON(http.StatusCreated, response{Success: true, Data: created, Message: res.Title + " created"})
}

func (h *Handler) Update(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	if err := writable(res); err != nil {
		return err
	}
	id := c.Param("id")
	existing, err := h.store.Get(res.Path, res.ID(), id)
	if err != nil {
		return notFound(res, err)
	}
	body, err := decodeRecord(c)
	if err != nil {
		return err
	}

	patch := res.Payload(body)
	merged := listedit.CloneRecord(existing)
	for k, v := range patch {
		merged[k] = v
	}
	if err := h.check(res, merged); err != nil {
		return err
	}

	updated, err := h.store.Update(res.Path, res.ID(), id, patch)
	if err != nil {
		return notFound(res, err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Data: updated, Message: res.Title + " updated"})
}

func (h *Handler) Delete(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	if err := writable(res); err != nil {
		return err
	}
	if err := h.store.Delete(res.Path, res.ID(), c.Param("id")); err != nil {
		return notFound(res, err)
	}
	return c.JSON(http.StatusOK, response{Success: true, Message: res.Title + " deleted"})
}

func (h *Handler) Action(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	a, ok := res.Action(c.Param("action"))
	if !ok || a.Apply == nil {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown action %q", c.Param("action")))
	}
	rec, err := h.store.Mutate(res.Path, res.ID(), c.Param("id"), a.Apply)
	if err != nil {
		return notFound(res, err)
	}
	h.logger.Info().Str("resource", res.Path).Str("action", a.Name).Str("id", c.Param("id")).Msg("action applied")
	return c.JSON(http.StatusOK, response{Success: true, Data: rec})
}

// Upload accepts a multipart file plus the resource's editable fields as
// form values. The file content is discarded; only its metadata is kept.
func (h *Handler) Upload(c echo.Context) error {
	res, err := h.resource(c)
	if err != nil {
		return err
	}
	if !res.Upload {
		return echo.NewHTTPError(http.StatusMethodNotAllowed, res.Title+" does not accept uploads")
	}
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	rec := listedit.Record{}
	for _, f := range res.Fields {
		if f.ReadOnly {
			continue
		}
		if v := c.FormValue(f.Name); v != "" {
			rec[f.Name] = listedit.Coerce(f.Kind, v)
		}
	}
	if _, ok := rec["title"]; !ok {
		if _, hasTitle := res.Field("title"); hasTitle {
			rec["title"] = file.Filename
		}
	}
	for k, v := range res.Defaults {
		if _, ok := rec[k]; !ok {
			rec[k] = v
		}
	}
	if err := h.check(res, rec); err != nil {
		return err
	}

	rec["fileName"] = file.Filename
	rec["contentType"] = file.Header.Get(echo.HeaderContentType)
	rec["size"] = float64(file.Size)
	rec["uploadedAt"] = h.now().UTC().Format(time.RFC3339)
	if res.Stamp != nil {
		res.Stamp(rec)
	}

	created := h.store.Create(res.Path, res.ID(), rec)
	h.logger.Info().Str("resource", res.Path).Str("file", file.Filename).Int64("size", file.Size).Msg("file uploaded")
	return c.JSON(http.StatusCreated, response{Success: true, Data: created, Message: res.Title + " uploaded"})
}

// check answers 400 with field errors for invalid records and 409 when a
// unique field clashes with another record.
func (h *Handler) check(res *listedit.Resource, rec listedit.Record) error {
	if err := listedit.CheckFields(res, rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, response{
			Message: "Validation failed",
			Errors:  listedit.FieldErrorsOf(err),
		})
	}
	if len(res.UniqueFields) == 0 {
		return nil
	}
	dup := validation.CheckUnique(h.store.List(res.Path, nil), rec, res.ID(), res.UniqueFields...)
	if !dup.OK() {
		return echo.NewHTTPError(http.StatusConflict, dup.Conflicts[0].Message())
	}
	return nil
}

func decodeRecord(c echo.Context) (listedit.Record, error) {
	var rec listedit.Record
	if err := json.NewDecoder(c.Request().Body).Decode(&rec); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	if rec == nil {
		rec = listedit.Record{}
	}
	return rec, nil
}

func notFound(res *listedit.Resource, err error) error {
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, res.Title+" not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
