package schema_registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeRegistry is an in-memory Confluent compatible registry served over httptest.
type fakeRegistry struct {
	mu       sync.Mutex
	nextID   int
	bodies   map[int]schemaPayload
	subjects map[string][]fakeVersion
	config   map[string]string

	schemaByIDCalls atomic.Int32
	server          *httptest.Server
}

type fakeVersion struct {
	id      int
	version int
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	t.Helper()

	f := &fakeRegistry{
		nextID:   1,
		bodies:   make(map[int]schemaPayload),
		subjects: make(map[string][]fakeVersion),
		config:   make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /schemas/ids/{id}", f.schemaByID)
	mux.HandleFunc("GET /subjects/{subject}/versions/{version}", f.schemaByVersion)
	mux.HandleFunc("POST /subjects/{subject}/versions", f.createSchema)
	mux.HandleFunc("GET /config/{subject}", f.getConfig)
	mux.HandleFunc("PUT /config/{subject}", f.putConfig)
	mux.HandleFunc("POST /compatibility/subjects/{subject}/versions/{version}", f.checkCompatibility)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeRegistry) URL() string { return f.server.URL }

func (f *fakeRegistry) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(Config{URL: f.URL()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

// setConfig configures the compatibility level of subject.
func (f *fakeRegistry) setConfig(subject, level string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config[subject] = level
}

// storedBody returns the raw body stored under id.
func (f *fakeRegistry) storedBody(id int) schemaPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[id]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]interface{}{"error_code": code, "message": message})
}

func (f *fakeRegistry) schemaByID(w http.ResponseWriter, r *http.Request) {
	f.schemaByIDCalls.Add(1)
	id, _ := strconv.Atoi(r.PathValue("id"))

	f.mu.Lock()
	body, ok := f.bodies[id]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, 40403, "Schema not found")
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeRegistry) schemaByVersion(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")

	f.mu.Lock()
	defer f.mu.Unlock()
	versions := f.subjects[subject]
	if len(versions) == 0 {
		writeError(w, http.StatusNotFound, 40401, "Subject '"+subject+"' not found.")
		return
	}

	var found *fakeVersion
	switch raw := r.PathValue("version"); raw {
	case "latest", "-1":
		found = &versions[len(versions)-1]
	default:
		n, _ := strconv.Atoi(raw)
		for i := range versions {
			if versions[i].version == n {
				found = &versions[i]
			}
		}
	}
	if found == nil {
		writeError(w, http.StatusNotFound, 40402, "Version not found.")
		return
	}

	body := f.bodies[found.id]
	resp := map[string]interface{}{
		"subject": subject,
		"version": found.version,
		"id":      found.id,
		"schema":  body.Schema,
	}
	if body.SchemaType != "" {
		resp["schemaType"] = body.SchemaType
	}
	if len(body.References) > 0 {
		resp["references"] = body.References
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeRegistry) createSchema(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")

	var body schemaPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ref := range body.References {
		if !f.hasVersion(ref.Subject, ref.Version) {
			writeError(w, http.StatusUnprocessableEntity, 42201, "Invalid schema: reference "+ref.Name+" not found")
			return
		}
	}

	id := 0
	for existing, b := range f.bodies {
		if b.Schema == body.Schema && b.SchemaType == body.SchemaType {
			id = existing
		}
	}
	if id == 0 {
		id = f.nextID
		f.nextID++
		f.bodies[id] = body
	}

	versions := f.subjects[subject]
	for _, v := range versions {
		if v.id == id {
			writeJSON(w, http.StatusOK, map[string]int{"id": id})
			return
		}
	}
	f.subjects[subject] = append(versions, fakeVersion{id: id, version: len(versions) + 1})
	writeJSON(w, http.StatusOK, map[string]int{"id": id})
}

func (f *fakeRegistry) hasVersion(subject string, version int) bool {
	versions := f.subjects[subject]
	if version == LatestVersion {
		return len(versions) > 0
	}
	for _, v := range versions {
		if v.version == version {
			return true
		}
	}
	return false
}

func (f *fakeRegistry) getConfig(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")

	f.mu.Lock()
	level, ok := f.config[subject]
	f.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, 40408, "Subject '"+subject+"' does not have subject-level compatibility configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"compatibilityLevel": level})
}

func (f *fakeRegistry) putConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Compatibility string `json:"compatibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, 42203, err.Error())
		return
	}
	f.setConfig(r.PathValue("subject"), body.Compatibility)
	writeJSON(w, http.StatusOK, body)
}

func (f *fakeRegistry) checkCompatibility(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")

	var body schemaPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subjects[subject]) == 0 {
		writeError(w, http.StatusNotFound, 40401, "Subject '"+subject+"' not found.")
		return
	}
	latest := f.subjects[subject][len(f.subjects[subject])-1]
	writeJSON(w, http.StatusOK, map[string]bool{"is_compatible": f.bodies[latest.id].SchemaType == body.SchemaType})
}
