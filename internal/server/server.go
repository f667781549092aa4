package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/MKJM2/cs2620-final-prototype/internal/session"
	"github.com/MKJM2/cs2620-final-prototype/internal/store"
)

const editpage = `<html>
    <head>
        <script src="/dist/main.js" type="module"></script>
    </head>
    <body>
        <center>
            <textarea id="textbox" name="textbox" rows="45" cols="150" disabled></textarea>
        </center>
    </body>
</html>`

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server wires the document registry to its HTTP and websocket surface.
type Server struct {
	registry *session.Registry
	users    *mongo.Collection // nil disables auth
	secret   []byte
}

func New(st store.Store, users *mongo.Collection, secret []byte) *Server {
	return &Server{
		registry: session.NewRegistry(st),
		users:    users,
		secret:   secret,
	}
}

// Seed prepopulates a well-known document at boot.
func (s *Server) Seed(ctx context.Context, docID, text string) error {
	return s.registry.Seed(ctx, docID, text)
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/login", s.login).Methods("POST")
	r.HandleFunc("/register", s.register).Methods("POST")
	r.HandleFunc("/docs", s.middleware(s.docs)).Methods("GET")
	r.HandleFunc("/edit/{docid}", s.edit)
	r.HandleFunc("/ws/{docid}", s.ws)
	r.PathPrefix("/dist/").Handler(http.StripPrefix("/dist/", http.FileServer(http.Dir("dist/"))))

	return r
}

// Run serves until the listener fails.
func Run(addr string, s *Server) error {
	srv := &http.Server{
		Handler:     s.Router(),
		Addr:        addr,
		ReadTimeout: 15 * time.Second,
	}
	log.Printf("listening on %s", addr)
	return srv.ListenAndServe()
}

// set up websocket
func (s *Server) ws(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docid"]
	if docID == "" {
		http.Error(w, "Malformed id", http.StatusBadRequest)
		return
	}

	if s.users != nil {
		if _, ok := s.parseJWT(r.URL.Query().Get("token")); !ok {
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}
	}

	sess, err := s.registry.Get(r.Context(), docID)
	if err != nil {
		log.Println(err)
		http.Error(w, "Document unavailable", http.StatusInternalServerError)
		return
	}

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	c := newConn(sock, sess)
	c.interact(r.Context())
}

func (s *Server) edit(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docid"]
	if docID == "" {
		http.Error(w, "Malformed id", http.StatusBadRequest)
		return
	}

	// first touch creates an empty document
	if _, err := s.registry.Get(r.Context(), docID); err != nil {
		log.Println(err)
		http.Error(w, "Document unavailable", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, editpage)
}

func (s *Server) docs(w http.ResponseWriter, r *http.Request) {
	ids, err := s.registry.List(r.Context())
	if err != nil {
		http.Error(w, "Listing failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ids)
}
