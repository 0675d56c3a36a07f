package http

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"fecviz/internal/chart"
	"fecviz/internal/export"
	"fecviz/internal/fec"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		MaxFiles    int
		StartCompte int64
		EndCompte   int64
		MinTotal    string
		MaxTotal    string
	}{
		MaxFiles:    s.cfg.MaxUploadFiles,
		StartCompte: defaultStartCompte,
		EndCompte:   defaultEndCompte,
		MinTotal:    defaultMinTotal,
		MaxTotal:    defaultMaxTotal,
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleIngest replaces the session dataset with the uploaded files.
// One unparseable file aborts the whole upload; nothing is kept.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessionFor(w, r)

	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		slog.ErrorContext(r.Context(), "Parse multipart error", "error", err)
		writeError(w, http.StatusBadRequest, "Formulaire d'import invalide")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "Aucun fichier sélectionné")
		return
	}
	// The file cap is surface policy only; the pipeline takes any N ≥ 1.
	if len(headers) > s.cfg.MaxUploadFiles {
		writeError(w, http.StatusUnprocessableEntity,
			"Vous ne pouvez importer que jusqu'à "+strconv.Itoa(s.cfg.MaxUploadFiles)+" fichiers.")
		return
	}

	files := make([]fec.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			slog.ErrorContext(r.Context(), "Open upload error", "error", err, "file", fh.Filename)
			writeError(w, http.StatusBadRequest, "Lecture impossible: "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			slog.ErrorContext(r.Context(), "Read upload error", "error", err, "file", fh.Filename)
			writeError(w, http.StatusBadRequest, "Lecture impossible: "+fh.Filename)
			return
		}
		files = append(files, fec.File{Name: fh.Filename, Data: data})
	}

	ds, err := fec.Ingest(files)
	if err != nil {
		var ingestErr *fec.IngestError
		if errors.As(err, &ingestErr) {
			slog.WarnContext(r.Context(), "Ingest rejected", "error", err, "file", ingestErr.File)
			writeError(w, http.StatusUnprocessableEntity, "Fichier illisible: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Ingest error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erreur lors de l'import")
		return
	}

	sess.mu.Lock()
	sess.dataset = ds
	sess.report = nil
	sess.chartPNG = nil
	sess.workbook = nil
	sess.mu.Unlock()

	slog.InfoContext(r.Context(), "Dataset ingested", "files", len(files), "rows", ds.Len())

	min, max, ok := ds.DateBounds()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	body := `<div class="success">` + strconv.Itoa(ds.Len()) + ` écritures importées (` +
		strconv.Itoa(len(files)) + ` fichiers)</div>`
	if ok {
		// Out-of-band swaps prefill the date pickers with the dataset bounds.
		body += `<input type="date" id="start_date" name="start_date" value="` + min.String() + `" hx-swap-oob="true">` +
			`<input type="date" id="end_date" name="end_date" value="` + max.String() + `" hx-swap-oob="true">`
	}
	_, _ = w.Write([]byte(body))
}

// handleProcess runs the pipeline on the session dataset and renders the
// report partial. Calling it before any upload is a defined no-op.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sess := s.sessionFor(w, r)

	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err)
		writeError(w, http.StatusBadRequest, "Formulaire invalide")
		return
	}
	params, err := parseProcessParams(r.Form)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess.mu.Lock()
	ds := sess.dataset
	sess.mu.Unlock()

	if ds.Len() == 0 {
		s.renderReport(w, r, nil)
		return
	}

	report, err := ds.Process(params)
	if err != nil {
		var dateErr *fec.DateParseError
		if errors.As(err, &dateErr) {
			slog.WarnContext(r.Context(), "Process rejected",
				"error", err, "file", dateErr.File, "line", dateErr.Line)
			writeError(w, http.StatusUnprocessableEntity, "Date illisible: "+err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Process error", "error", err)
		writeError(w, http.StatusInternalServerError, "Erreur de traitement")
		return
	}
	if report.Diagnostics.Dropped() {
		slog.WarnContext(r.Context(), "Rows dropped by numeric coercion",
			"bad_accounts", report.Diagnostics.BadAccounts,
			"bad_debits", report.Diagnostics.BadDebits,
			"bad_credits", report.Diagnostics.BadCredits)
	}

	var png, workbook []byte
	if len(report.Days) > 0 {
		if png, err = chart.Line(report); err != nil {
			slog.ErrorContext(r.Context(), "Chart render error", "error", err)
			writeError(w, http.StatusInternalServerError, "Erreur de génération du graphique")
			return
		}
		if workbook, err = export.Workbook(report); err != nil {
			slog.ErrorContext(r.Context(), "Workbook export error", "error", err)
			writeError(w, http.StatusInternalServerError, "Erreur de génération du fichier Excel")
			return
		}
	}

	sess.mu.Lock()
	sess.report = report
	sess.chartPNG = png
	sess.workbook = workbook
	sess.mu.Unlock()

	slog.InfoContext(r.Context(), "Report computed",
		"days", len(report.Days), "dense_days", report.DenseDays)

	s.renderReport(w, r, report)
}

type reportRow struct {
	Date  string
	Total string
}

func (s *Server) renderReport(w http.ResponseWriter, r *http.Request, report *fec.Report) {
	data := struct {
		NoData       bool
		Rows         []reportRow
		HasArtifacts bool
		Workbook     string
		BadAccounts  int
		BadDebits    int
		BadCredits   int
		Dropped      bool
	}{NoData: report == nil, Workbook: export.WorkbookName}

	if report != nil {
		for _, day := range report.Days {
			data.Rows = append(data.Rows, reportRow{Date: day.Date.String(), Total: day.Total.StringFixed(2)})
		}
		data.HasArtifacts = len(report.Days) > 0
		data.BadAccounts = report.Diagnostics.BadAccounts
		data.BadDebits = report.Diagnostics.BadDebits
		data.BadCredits = report.Diagnostics.BadCredits
		data.Dropped = report.Diagnostics.Dropped()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="error">templates not loaded</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "report.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Report template execution failed", "error", err, "template", "report.html")
		_, _ = w.Write([]byte(`<div class="error">Erreur de rendu du rapport</div>`))
	}
}

func (s *Server) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	png := sess.chartPNG
	sess.mu.Unlock()

	if len(png) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	sess.mu.Lock()
	workbook := sess.workbook
	sess.mu.Unlock()

	if len(workbook) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.WorkbookName+`"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(workbook)
}

// writeError renders an inline error partial. The message is HTML-escaped.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`))
}
