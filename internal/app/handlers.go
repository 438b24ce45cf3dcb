package app

import (
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"sync"
	"time"
)

// Server exposes a Store over HTTP
type Server struct {
	store *Store
	auth  *Auth
	page  *template.Template
	loc   *time.Location
	now   func() time.Time

	mu   sync.RWMutex
	view View
}

// NewServer creates the HTTP layer for store. page renders pageData.
func NewServer(store *Store, auth *Auth, page *template.Template, loc *time.Location) *Server {
	s := &Server{
		store: store,
		auth:  auth,
		page:  page,
		loc:   loc,
		now:   time.Now,
		view:  store.View(),
	}
	store.Subscribe(s.setView)
	return s
}

func (s *Server) setView(v View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// currentView is the last rendered view with Past brought up to the current time
func (s *Server) currentView() View {
	s.mu.RLock()
	view := s.view
	s.mu.RUnlock()
	return view.At(s.now(), s.loc)
}

// Routes registers all endpoints on mux
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", s.ServeIndex)
	mux.HandleFunc("/parties", s.auth.RequireAuth(s.SubmitForm))
	mux.HandleFunc("/parties/delete", s.auth.RequireAuth(s.SubmitDelete))

	mux.HandleFunc("/api/config", s.GetConfig)
	mux.HandleFunc("/api/parties", s.ListParties)
	mux.HandleFunc("/api/parties/add", s.auth.RequireAuth(s.AddParty))
	mux.HandleFunc("/api/parties/delete", s.auth.RequireAuth(s.DeleteParty))
	mux.HandleFunc("/api/parties/refresh", s.auth.RequireAuth(s.RefreshParties))
	mux.HandleFunc("/api/download", s.HandleDownload)
	mux.HandleFunc("/api/subscribe", s.HandleSubscribe)
}

// pageData is what the index template renders
type pageData struct {
	View  View
	Error string
	Form  formValues
	Today string
}

type formValues struct {
	Date        string
	Description string
	Location    string
}

// ServeIndex renders the party table and the add form
func (s *Server) ServeIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderPage(w, http.StatusOK, pageData{})
}

func (s *Server) renderPage(w http.ResponseWriter, status int, data pageData) {
	data.View = s.currentView()
	data.Today = s.now().In(s.loc).Format(DateLayout)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.page.Execute(w, data); err != nil {
		log.Printf("Error rendering index page: %v", err)
	}
}

// SubmitForm handles the add form
func (s *Server) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	form := formValues{
		Date:        r.PostFormValue("date"),
		Description: r.PostFormValue("description"),
		Location:    r.PostFormValue("location"),
	}

	if _, err := s.store.AddEvent(r.Context(), form.Date, form.Description, form.Location); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			s.renderPage(w, http.StatusBadRequest, pageData{Error: verr.Message, Form: form})
			return
		}
		log.Printf("Error adding party: %v", err)
		http.Error(w, ErrFailedToSave, http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SubmitDelete handles the per-row delete button
func (s *Server) SubmitDelete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}

	if _, err := s.store.DeleteByID(r.Context(), r.PostFormValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetConfig returns settings the page scripts need
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	today := s.now().In(s.loc)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"today":        today.Format(DateLayout),
		"timezone":     s.loc.String(),
		"authRequired": s.auth.Enabled(),
		"holidays":     holidaysNRW(today.Year()),
	})
}

// ListParties returns the current view as JSON
func (s *Server) ListParties(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.currentView())
}

// AddParty adds a party from a JSON body
func (s *Server) AddParty(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Date        string `json:"date"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	party, err := s.store.AddEvent(r.Context(), req.Date, req.Description, req.Location)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"status": "ok", "party": party})
}

// DeleteParty deletes by {"id": "..."} or, failing that, {"index": n}
func (s *Server) DeleteParty(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ID    string `json:"id"`
		Index *int   `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		party Party
		err   error
	)
	switch {
	case req.ID != "":
		party, err = s.store.DeleteByID(r.Context(), req.ID)
	case req.Index != nil:
		party, err = s.store.DeleteEvent(r.Context(), *req.Index)
	default:
		http.Error(w, ErrInvalidRequest, http.StatusBadRequest)
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "party": party})
}

// RefreshParties re-syncs from the remote document
func (s *Server) RefreshParties(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := s.store.FetchRemote(r.Context()); err != nil {
		log.Printf("There was a problem with the fetch operation: %v", err)
		http.Error(w, ErrFailedToRefresh, http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "count": len(s.store.Parties())})
}

// HandleDownload exports all parties as ICS, CSV or JSON
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	parties := s.store.Parties()

	switch r.URL.Query().Get("format") {
	case "ics":
		GenerateICS(w, parties, s.loc)
	case "csv":
		GenerateCSV(w, parties)
	case "json":
		GenerateJSON(w, parties)
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}

// HandleSubscribe serves an ICS feed of upcoming parties
func (s *Server) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	GenerateSubscriptionICS(w, upcoming(s.store.Parties(), s.now(), s.loc), s.loc)
}
