package handler

import (
    "bytes"
    "context"
    "database/sql"
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "path/filepath"
    "strings"
    "testing"

    "github.com/charmbracelet/log"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/classroom-seating/internal/database"
    "github.com/iliyamo/classroom-seating/internal/history"
    "github.com/iliyamo/classroom-seating/internal/model"
    "github.com/iliyamo/classroom-seating/internal/render"
    "github.com/iliyamo/classroom-seating/internal/repository"
    "github.com/iliyamo/classroom-seating/internal/seating"
    "github.com/iliyamo/classroom-seating/internal/service"
)

// newServer wires the handler over a fresh SQLite database with class 1
// holding the given number of active students.
func newServer(t *testing.T, students int) (*echo.Echo, *sql.DB) {
    t.Helper()
    db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "seating.db"))
    if err != nil {
        t.Fatalf("open sqlite: %v", err)
    }
    t.Cleanup(func() { _ = db.Close() })
    ctx := context.Background()
    if err := database.Migrate(ctx, db, database.SQLite); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    if _, err := db.ExecContext(ctx, `INSERT INTO classrooms (id, teacher_id, name) VALUES (1, 1, 'Grade 7 B')`); err != nil {
        t.Fatal(err)
    }
    for i := 0; i < students; i++ {
        if _, err := db.ExecContext(ctx,
            `INSERT INTO students (class_id, student_no, name, gender, is_active) VALUES (1, ?, ?, '男', 1)`,
            i+1, string(rune('A'+i))); err != nil {
            t.Fatal(err)
        }
    }

    quiet := log.New(io.Discard)
    svc := service.NewSeatingService(service.Deps{
        Classrooms: repository.NewClassroomRepo(db),
        Students:   repository.NewStudentRepo(db),
        Engine:     seating.NewEngine(seating.WithLogger(quiet)),
        History:    history.NewStore(repository.NewSeatingRecordRepo(db), history.WithLogger(quiet)),
        Renderer:   render.NewPDFRenderer(),
        Logger:     quiet,
    })
    h := NewSeatingHandler(svc, quiet)

    // registered here rather than through the router package to avoid an
    // import cycle in tests
    e := echo.New()
    g := e.Group("/v1/classes")
    g.PUT("/:id/layout", h.PutLayout)
    g.GET("/:id/layout/empty", h.EmptyGrid)
    g.POST("/:id/arrangements/random", h.RandomArrange)
    g.GET("/:id/arrangements/latest", h.Latest)
    g.POST("/:id/records", h.SaveRecord)
    g.GET("/:id/records", h.ListRecords)
    g.GET("/:id/export.pdf", h.ExportLatest)
    g.POST("/:id/export.pdf", h.ExportPosted)
    e.GET("/healthz", Health(db))
    return e, db
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
    var r io.Reader
    if body != "" {
        r = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, target, r)
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
    t.Helper()
    if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
        t.Fatalf("decode %s: %v", rec.Body.String(), err)
    }
}

func TestPutLayoutCapacityError(t *testing.T) {
    t.Parallel()

    e, _ := newServer(t, 5)
    rec := do(e, http.MethodPut, "/v1/classes/1/layout", `{"rows":2,"cols":2}`)
    if rec.Code != http.StatusUnprocessableEntity {
        t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
    }
    var body struct {
        Error    string `json:"error"`
        Seats    int    `json:"seats"`
        Students int    `json:"students"`
    }
    decode(t, rec, &body)
    if body.Seats != 4 || body.Students != 5 || !strings.Contains(body.Error, "(4)") {
        t.Fatalf("body = %+v", body)
    }

    rec = do(e, http.MethodPut, "/v1/classes/1/layout", `{"rows":2,"cols":3,"row_spacing":{"1":12.5}}`)
    if rec.Code != http.StatusOK {
        t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
    }
    var layout model.LayoutConfig
    decode(t, rec, &layout)
    if layout.Rows != 2 || layout.Cols != 3 || layout.RowSpacing[1] != 12.5 {
        t.Fatalf("layout = %+v", layout)
    }
}

func TestRequestErrors(t *testing.T) {
    t.Parallel()

    e, _ := newServer(t, 2)
    tests := []struct {
        method, target, body string
        status               int
    }{
        {http.MethodPost, "/v1/classes/1/arrangements/random", "", http.StatusConflict},
        {http.MethodGet, "/v1/classes/1/arrangements/latest", "", http.StatusNotFound},
        {http.MethodGet, "/v1/classes/1/export.pdf", "", http.StatusNotFound},
        {http.MethodGet, "/v1/classes/9/records", "", http.StatusNotFound},
        {http.MethodGet, "/v1/classes/abc/records", "", http.StatusBadRequest},
        {http.MethodGet, "/v1/classes/1/layout/empty?rows=0&cols=3", "", http.StatusBadRequest},
        {http.MethodGet, "/v1/classes/1/layout/empty?rows=x", "", http.StatusBadRequest},
        {http.MethodGet, "/v1/classes/1/layout/empty?rows=100000&cols=100000", "", http.StatusBadRequest},
        {http.MethodPut, "/v1/classes/1/layout", `{"rows":101,"cols":1}`, http.StatusBadRequest},
        {http.MethodPut, "/v1/classes/1/layout", `{"rows":-1,"cols":3}`, http.StatusBadRequest},
        {http.MethodPost, "/v1/classes/1/records?name=x", `{"rows":2,"cols":2,"layout":[]}`, http.StatusBadRequest},
        {http.MethodPost, "/v1/classes/1/records", `{"rows":1,"cols":1,"layout":[{"row":1,"col":1}]}`, http.StatusBadRequest},
    }
    for _, tt := range tests {
        rec := do(e, tt.method, tt.target, tt.body)
        if rec.Code != tt.status {
            t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.target, rec.Code, tt.status, rec.Body)
        }
    }
}

func TestArrangeSaveExportFlow(t *testing.T) {
    t.Parallel()

    e, _ := newServer(t, 4)
    if rec := do(e, http.MethodPut, "/v1/classes/1/layout", `{"rows":2,"cols":3}`); rec.Code != http.StatusOK {
        t.Fatalf("put layout = %d", rec.Code)
    }

    rec := do(e, http.MethodGet, "/v1/classes/1/layout/empty?rows=2&cols=3", "")
    var blank model.SeatingResult
    decode(t, rec, &blank)
    if len(blank.Layout) != 6 || blank.Occupied() != 0 {
        t.Fatalf("empty grid = %+v", blank)
    }

    rec = do(e, http.MethodPost, "/v1/classes/1/arrangements/random", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("random = %d, body %s", rec.Code, rec.Body)
    }
    arrangement := rec.Body.String()
    var res model.SeatingResult
    decode(t, rec, &res)
    if res.Occupied() != 4 {
        t.Fatalf("occupied = %d", res.Occupied())
    }

    rec = do(e, http.MethodPost, "/v1/classes/1/records?name=week%201", arrangement)
    if rec.Code != http.StatusCreated {
        t.Fatalf("save = %d, body %s", rec.Code, rec.Body)
    }
    var saved model.SeatingRecord
    decode(t, rec, &saved)
    if saved.ID == 0 || saved.RecordName != "week 1" {
        t.Fatalf("saved = %+v", saved)
    }

    rec = do(e, http.MethodGet, "/v1/classes/1/records", "")
    var list struct {
        Records []model.SeatingRecord `json:"records"`
    }
    decode(t, rec, &list)
    if len(list.Records) != 1 || list.Records[0].ID != saved.ID {
        t.Fatalf("records = %+v", list.Records)
    }

    rec = do(e, http.MethodGet, "/v1/classes/1/arrangements/latest", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("latest = %d", rec.Code)
    }

    rec = do(e, http.MethodGet, "/v1/classes/1/export.pdf", "")
    if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "application/pdf" {
        t.Fatalf("export = %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
    }
    if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
        t.Fatal("export body is not a PDF")
    }

    rec = do(e, http.MethodPost, "/v1/classes/1/export.pdf", arrangement)
    if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
        t.Fatalf("export posted = %d", rec.Code)
    }
}

func TestStoredLayoutOutOfRangeIsConflict(t *testing.T) {
    t.Parallel()

    e, db := newServer(t, 2)
    if _, err := db.Exec(`UPDATE classrooms SET seat_rows = 0, seat_cols = 4 WHERE id = 1`); err != nil {
        t.Fatal(err)
    }
    rec := do(e, http.MethodPost, "/v1/classes/1/arrangements/random", "")
    if rec.Code != http.StatusConflict {
        t.Fatalf("random = %d, want 409 (body %s)", rec.Code, rec.Body)
    }
    if !strings.Contains(rec.Body.String(), "stored layout") {
        t.Fatalf("body = %s", rec.Body)
    }
}

func TestExportUnrenderableNameIsServerError(t *testing.T) {
    t.Parallel()

    e, db := newServer(t, 0)
    if _, err := db.Exec(`INSERT INTO students (class_id, student_no, name, gender, is_active) VALUES (1, 1, '王伟', '男', 1)`); err != nil {
        t.Fatal(err)
    }
    if rec := do(e, http.MethodPut, "/v1/classes/1/layout", `{"rows":1,"cols":2}`); rec.Code != http.StatusOK {
        t.Fatalf("put layout = %d", rec.Code)
    }
    rec := do(e, http.MethodPost, "/v1/classes/1/arrangements/random", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("random = %d, body %s", rec.Code, rec.Body)
    }
    rec = do(e, http.MethodPost, "/v1/classes/1/export.pdf", rec.Body.String())
    if rec.Code != http.StatusInternalServerError {
        t.Fatalf("export = %d, want 500", rec.Code)
    }
    if !strings.Contains(rec.Body.String(), "no glyph") {
        t.Fatalf("body = %s", rec.Body)
    }
}

func TestCorruptedLatestIsAbsent(t *testing.T) {
    t.Parallel()

    e, db := newServer(t, 1)
    if _, err := db.Exec(`INSERT INTO seating_records (class_id, record_name, layout_snapshot, created_at_ms) VALUES (1, 'bad', '{"rows":', 1)`); err != nil {
        t.Fatal(err)
    }
    if rec := do(e, http.MethodGet, "/v1/classes/1/arrangements/latest", ""); rec.Code != http.StatusNotFound {
        t.Fatalf("latest = %d, want 404", rec.Code)
    }
    if rec := do(e, http.MethodGet, "/v1/classes/1/export.pdf", ""); rec.Code != http.StatusNotFound {
        t.Fatalf("export = %d, want 404", rec.Code)
    }
}

func TestHealth(t *testing.T) {
    t.Parallel()

    e, db := newServer(t, 0)
    if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
        t.Fatalf("healthz = %d %q", rec.Code, rec.Body)
    }
    _ = db.Close()
    if rec := do(e, http.MethodGet, "/healthz", ""); rec.Code != http.StatusServiceUnavailable {
        t.Fatalf("healthz after close = %d", rec.Code)
    }
}
