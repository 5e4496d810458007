package handler // handler contains the HTTP handlers of the seating API

import (
    "errors"
    "fmt"
    "net/http"
    "strconv"
    "strings"

    "github.com/charmbracelet/log"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/classroom-seating/internal/middleware"
    "github.com/iliyamo/classroom-seating/internal/model"
    "github.com/iliyamo/classroom-seating/internal/repository"
    "github.com/iliyamo/classroom-seating/internal/seating"
    "github.com/iliyamo/classroom-seating/internal/service"
)

// SeatingHandler exposes the seating service over HTTP.
type SeatingHandler struct {
    Service *service.SeatingService
    Logger  *log.Logger
}

// NewSeatingHandler panics when svc is nil.
func NewSeatingHandler(svc *service.SeatingService, logger *log.Logger) *SeatingHandler {
    if svc == nil {
        panic("nil service passed to NewSeatingHandler")
    }
    if logger == nil {
        logger = log.Default()
    }
    return &SeatingHandler{Service: svc, Logger: logger}
}

func actor(c echo.Context) service.Actor {
    return service.Actor{UserID: middleware.UserID(c)}
}

// classID parses the :id path parameter.
func classID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

func badID(c echo.Context) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
}

// PutLayout handles PUT /v1/classes/:id/layout.
func (h *SeatingHandler) PutLayout(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    var body struct {
        Rows       int                 `json:"rows"`
        Cols       int                 `json:"cols"`
        RowSpacing model.SpacingConfig `json:"row_spacing"`
        ColSpacing model.SpacingConfig `json:"col_spacing"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    layout, err := h.Service.SetLayout(c.Request().Context(), actor(c), id, body.Rows, body.Cols, body.RowSpacing, body.ColSpacing)
    if err != nil {
        return h.fail(c, id, err)
    }
    return c.JSON(http.StatusOK, layout)
}

// EmptyGrid handles GET /v1/classes/:id/layout/empty?rows=&cols=.
func (h *SeatingHandler) EmptyGrid(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    rows, errR := strconv.Atoi(c.QueryParam("rows"))
    cols, errC := strconv.Atoi(c.QueryParam("cols"))
    if errR != nil || errC != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and cols query parameters are required integers"})
    }
    grid, err := h.Service.GenerateEmptyGrid(c.Request().Context(), actor(c), id, rows, cols)
    if err != nil {
        return h.fail(c, id, err)
    }
    return c.JSON(http.StatusOK, grid)
}

// RandomArrange handles POST /v1/classes/:id/arrangements/random.
func (h *SeatingHandler) RandomArrange(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    res, err := h.Service.RandomArrange(c.Request().Context(), actor(c), id)
    if err != nil {
        return h.fail(c, id, err)
    }
    return c.JSON(http.StatusOK, res)
}

// SaveRecord handles POST /v1/classes/:id/records?name=.  The body is the
// arrangement to save.
func (h *SeatingHandler) SaveRecord(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    name := strings.TrimSpace(c.QueryParam("name"))
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    }
    var res model.SeatingResult
    if err := c.Bind(&res); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    rec, err := h.Service.SaveArrangement(c.Request().Context(), actor(c), id, &res, name)
    if err != nil {
        return h.fail(c, id, err)
    }
    return c.JSON(http.StatusCreated, rec)
}

// ListRecords handles GET /v1/classes/:id/records.
func (h *SeatingHandler) ListRecords(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    recs, err := h.Service.ListRecords(c.Request().Context(), actor(c), id)
    if err != nil {
        return h.fail(c, id, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"records": recs})
}

// Latest handles GET /v1/classes/:id/arrangements/latest.
func (h *SeatingHandler) Latest(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    res, found, err := h.Service.LatestArrangement(c.Request().Context(), actor(c), id)
    if err != nil {
        return h.fail(c, id, err)
    }
    if !found {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no saved arrangement"})
    }
    return c.JSON(http.StatusOK, res)
}

// ExportLatest handles GET /v1/classes/:id/export.pdf.
func (h *SeatingHandler) ExportLatest(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    doc, err := h.Service.ExportDocument(c.Request().Context(), actor(c), id)
    if err != nil {
        return h.fail(c, id, err)
    }
    return pdf(c, id, doc)
}

// ExportPosted handles POST /v1/classes/:id/export.pdf with an unsaved
// arrangement in the body.
func (h *SeatingHandler) ExportPosted(c echo.Context) error {
    id, ok := classID(c)
    if !ok {
        return badID(c)
    }
    var res model.SeatingResult
    if err := c.Bind(&res); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    doc, err := h.Service.ExportResult(c.Request().Context(), actor(c), id, &res)
    if err != nil {
        return h.fail(c, id, err)
    }
    return pdf(c, id, doc)
}

func pdf(c echo.Context, id uint64, doc []byte) error {
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="class-%d-seating.pdf"`, id))
    return c.Blob(http.StatusOK, "application/pdf", doc)
}

// fail maps service errors to responses.  Unknown errors are logged and
// reported as 500 without detail.
func (h *SeatingHandler) fail(c echo.Context, id uint64, err error) error {
    var (
        capErr    *seating.CapacityError
        layoutErr *seating.InvalidLayoutError
        serErr    *seating.SerializationError
        noneErr   *seating.NoArrangementError
        resErr    *seating.ResourceError
    )
    switch {
    case errors.Is(err, repository.ErrClassroomNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "classroom not found"})
    case errors.Is(err, service.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.As(err, &capErr):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{
            "error":    capErr.Error(),
            "seats":    capErr.Seats,
            "students": capErr.Students,
        })
    case errors.Is(err, seating.ErrLayoutUnset):
        return c.JSON(http.StatusConflict, echo.Map{"error": "layout is not set"})
    case errors.As(err, &layoutErr):
        if layoutErr.Stored {
            return c.JSON(http.StatusConflict, echo.Map{"error": layoutErr.Error()})
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": layoutErr.Error()})
    case errors.As(err, &serErr):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": serErr.Error()})
    case errors.As(err, &noneErr):
        return c.JSON(http.StatusNotFound, echo.Map{"error": noneErr.Error()})
    case errors.Is(err, service.ErrLockTimeout):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.As(err, &resErr):
        h.Logger.Error("export resource unusable", "class_id", id, "err", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": resErr.Error()})
    }
    h.Logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "class_id", id, "err", err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
