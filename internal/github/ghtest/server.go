// Package ghtest provides a fake GitHub REST API for tests.
package ghtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"sync"

	gh "github.com/google/go-github/v66/github"
)

// PR is the server-side state of a pull request
type PR struct {
	Number         int
	State          string
	Body           *string
	Labels         []string
	Commits        []string
	Comments       int
	ReviewComments int
}

// Reaction is a reaction stored by the fake server
type Reaction struct {
	ID      int64
	Content string
	Login   string
}

// Server serves the endpoints the bot calls:
//   - GET    /user
//   - GET    /repos/{owner}/{repo}/pulls
//   - GET    /repos/{owner}/{repo}/pulls/{number}
//   - GET    /repos/{owner}/{repo}/pulls/{number}/commits
//   - GET    /repos/{owner}/{repo}/issues/{number}/reactions
//   - POST   /repos/{owner}/{repo}/issues/{number}/reactions
//   - DELETE /repos/{owner}/{repo}/issues/{number}/reactions/{id}
//   - POST   /repos/{owner}/{repo}/issues/{number}/comments
//
// Reactions and comments are created as Login.
type Server struct {
	*httptest.Server

	Login string

	mu        sync.Mutex
	prs       map[int]*PR
	reactions map[int][]Reaction
	comments  map[int][]string
	failures  map[string]int
	requests  []string
	nextID    int64
}

// NewServer starts a fake GitHub API.
// The returned cleanup function must be called to close the server.
func NewServer(login string) (*Server, func()) {
	s := &Server{
		Login:     login,
		prs:       make(map[int]*PR),
		reactions: make(map[int][]Reaction),
		comments:  make(map[int][]string),
		failures:  make(map[string]int),
		nextID:    5000,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", s.handleUser)
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls", s.handleListPulls)
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls/{number}", s.handleGetPull)
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls/{number}/commits", s.handleListCommits)
	mux.HandleFunc("GET /repos/{owner}/{repo}/issues/{number}/reactions", s.handleListReactions)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/reactions", s.handleCreateReaction)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/issues/{number}/reactions/{id}", s.handleDeleteReaction)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues/{number}/comments", s.handleCreateComment)

	s.Server = httptest.NewServer(s.recordAndFail(mux))
	return s, s.Close
}

// Client returns a go-github client pointed at the server.
func (s *Server) Client() *gh.Client {
	client := gh.NewClient(s.Server.Client())
	base, _ := url.Parse(s.URL + "/")
	client.BaseURL = base
	client.UploadURL = base
	return client
}

// AddPR stores a pull request.
func (s *Server) AddPR(pr PR) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := pr
	s.prs[pr.Number] = &cp
}

// AddReaction attaches a reaction made by login.
func (s *Server) AddReaction(number int, content, login string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.reactions[number] = append(s.reactions[number], Reaction{ID: s.nextID, Content: content, Login: login})
	return s.nextID
}

// Reactions returns the reactions on a pull request.
func (s *Server) Reactions(number int) []Reaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Reaction(nil), s.reactions[number]...)
}

// Comments returns the comment bodies posted on a pull request.
func (s *Server) Comments(number int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.comments[number]...)
}

// Requests returns "METHOD path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Fail makes requests matching "METHOD path" answer with status.
func (s *Server) Fail(methodAndPath string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[methodAndPath] = status
}

func (s *Server) recordAndFail(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, key)
		status, fail := s.failures[key]
		s.mu.Unlock()
		if fail {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func pathNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("number"))
	return n, err == nil
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"login": s.Login, "type": "User"})
}

func (s *Server) handleListPulls(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := r.URL.Query().Get("state")
	numbers := make([]int, 0, len(s.prs))
	for n, pr := range s.prs {
		if state == "" || state == "all" || pr.State == state {
			numbers = append(numbers, n)
		}
	}
	// Numbers grow with creation time, so created/desc is descending number.
	sort.Sort(sort.Reverse(sort.IntSlice(numbers)))
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && perPage > 0 && len(numbers) > perPage {
		numbers = numbers[:perPage]
	}

	out := make([]map[string]any, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, map[string]any{"number": n, "state": s.prs[n].State})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPull(w http.ResponseWriter, r *http.Request) {
	n, ok := pathNumber(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, found := s.prs[n]
	if !ok || !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	labels := make([]map[string]any, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, map[string]any{"name": l})
	}
	out := map[string]any{
		"number":          pr.Number,
		"state":           pr.State,
		"labels":          labels,
		"comments":        pr.Comments + len(s.comments[n]),
		"review_comments": pr.ReviewComments,
		"commits":         len(pr.Commits),
	}
	if pr.Body != nil {
		out["body"] = *pr.Body
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListCommits(w http.ResponseWriter, r *http.Request) {
	n, _ := pathNumber(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	pr, found := s.prs[n]
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	out := make([]map[string]any, 0, len(pr.Commits))
	for i, msg := range pr.Commits {
		out = append(out, map[string]any{
			"sha":    "sha" + strconv.Itoa(i),
			"commit": map[string]any{"message": msg},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func reactionJSON(re Reaction) map[string]any {
	return map[string]any{
		"id":      re.ID,
		"content": re.Content,
		"user":    map[string]any{"login": re.Login},
	}
}

func (s *Server) handleListReactions(w http.ResponseWriter, r *http.Request) {
	n, _ := pathNumber(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.reactions[n]))
	for _, re := range s.reactions[n] {
		out = append(out, reactionJSON(re))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReaction(w http.ResponseWriter, r *http.Request) {
	n, _ := pathNumber(r)
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid content"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// GitHub answers 200 with the existing reaction for a duplicate.
	for _, re := range s.reactions[n] {
		if re.Content == req.Content && re.Login == s.Login {
			writeJSON(w, http.StatusOK, reactionJSON(re))
			return
		}
	}
	s.nextID++
	re := Reaction{ID: s.nextID, Content: req.Content, Login: s.Login}
	s.reactions[n] = append(s.reactions[n], re)
	writeJSON(w, http.StatusCreated, reactionJSON(re))
}

func (s *Server) handleDeleteReaction(w http.ResponseWriter, r *http.Request) {
	n, _ := pathNumber(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]Reaction, 0, len(s.reactions[n]))
	found := false
	for _, re := range s.reactions[n] {
		if re.ID == id {
			found = true
			continue
		}
		kept = append(kept, re)
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	s.reactions[n] = kept
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	n, _ := pathNumber(r)
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.comments[n] = append(s.comments[n], req.Body)
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   s.nextID,
		"body": req.Body,
		"user": map[string]any{"login": s.Login},
	})
}
