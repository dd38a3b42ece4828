package googledrive_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"notelog/internal/backend/googledrive"
	"notelog/internal/notelog"
)

type driveFile struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	MimeType string   `json:"mimeType,omitempty"`
	Parents  []string `json:"parents,omitempty"`
	content  string
}

// fakeDrive serves the subset of Drive v3 the client uses.
type fakeDrive struct {
	mu     sync.Mutex
	files  map[string]*driveFile
	nextID int
	status int // forced status for every request when non-zero
}

var queryRe = regexp.MustCompile(`name = '(.*)' and '(.*)' in parents and trashed = false and mimeType (=|!=) '(.*)'`)

func newFakeDrive() *fakeDrive {
	return &fakeDrive{files: make(map[string]*driveFile)}
}

func (d *fakeDrive) add(name, parent, mimeType, content string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := fmt.Sprintf("id%d", d.nextID)
	d.files[id] = &driveFile{ID: id, Name: name, MimeType: mimeType, Parents: []string{parent}, content: content}
	return id
}

func (d *fakeDrive) byName(name string) *driveFile {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.files {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (d *fakeDrive) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if d.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(d.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"forced"}}`, d.status)
		return
	}

	id := ""
	if i := strings.LastIndex(r.URL.Path, "/files/"); i >= 0 {
		id = r.URL.Path[i+len("/files/"):]
	}

	switch {
	case r.Method == http.MethodGet && id == "":
		d.list(w, r)
	case r.Method == http.MethodGet && r.URL.Query().Get("alt") == "media":
		d.mu.Lock()
		f, ok := d.files[id]
		d.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, f.content)
	case r.Method == http.MethodPost && id == "":
		meta, content := readUpload(r)
		var f driveFile
		json.Unmarshal(meta, &f)
		newID := d.add(f.Name, f.Parents[0], f.MimeType, content)
		writeJSON(w, map[string]string{"id": newID})
	case r.Method == http.MethodPatch && id != "":
		_, content := readUpload(r)
		d.mu.Lock()
		f, ok := d.files[id]
		if ok {
			f.content = content
		}
		d.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]string{"id": id})
	default:
		http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
	}
}

func (d *fakeDrive) list(w http.ResponseWriter, r *http.Request) {
	m := queryRe.FindStringSubmatch(r.URL.Query().Get("q"))
	if m == nil {
		http.Error(w, "bad query", http.StatusBadRequest)
		return
	}
	name, parent, op, mimeType := m[1], m[2], m[3], m[4]

	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*driveFile
	for _, f := range d.files {
		if f.Name != name || f.Parents[0] != parent {
			continue
		}
		if (f.MimeType == mimeType) != (op == "=") {
			continue
		}
		out = append(out, f)
	}
	writeJSON(w, map[string]any{"files": out})
}

// readUpload returns the metadata and media of a multipart or JSON request.
func readUpload(r *http.Request) ([]byte, string) {
	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		body, _ := io.ReadAll(r.Body)
		return body, ""
	}
	mr := multipart.NewReader(r.Body, params["boundary"])
	var parts [][]byte
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, data)
	}
	if len(parts) < 2 {
		return parts[0], ""
	}
	return parts[0], string(parts[1])
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, d *fakeDrive) *googledrive.Client {
	t.Helper()
	srv := httptest.NewServer(d)
	t.Cleanup(srv.Close)

	c, err := googledrive.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestTemporaryLink_RootFile(t *testing.T) {
	d := newFakeDrive()
	id := d.add("notes_log.txt", googledrive.RootID, "text/plain", "hello")
	c := newClient(t, d)

	link, err := c.TemporaryLink(context.Background(), "/notes_log.txt")
	require.NoError(t, err)

	assert.Contains(t, link.URL, "/files/"+id+"?alt=media")
	require.NotNil(t, link.Client, "drive media links need the authorized client")

	resp, err := link.Client.Get(link.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "hello", string(body))
}

func TestTemporaryLink_NestedAndMissing(t *testing.T) {
	d := newFakeDrive()
	folder := d.add("journal", googledrive.RootID, "application/vnd.google-apps.folder", "")
	d.add("log.txt", folder, "text/plain", "x")
	c := newClient(t, d)

	_, err := c.TemporaryLink(context.Background(), "/journal/log.txt")
	require.NoError(t, err)

	_, err = c.TemporaryLink(context.Background(), "/journal/other.txt")
	assert.ErrorIs(t, err, googledrive.ErrNotFound)

	_, err = c.TemporaryLink(context.Background(), "/missing/log.txt")
	assert.ErrorIs(t, err, googledrive.ErrNotFound)
}

func TestUpload_CreatesThenUpdates(t *testing.T) {
	d := newFakeDrive()
	c := newClient(t, d)
	ctx := context.Background()

	require.NoError(t, c.Upload(ctx, "/journal/log.txt", strings.NewReader("first")))

	folder := d.byName("journal")
	require.NotNil(t, folder)
	file := d.byName("log.txt")
	require.NotNil(t, file)
	assert.Equal(t, []string{folder.ID}, file.Parents)
	assert.Equal(t, "first", file.content)

	require.NoError(t, c.Upload(ctx, "/journal/log.txt", strings.NewReader("second")))

	assert.Len(t, d.files, 2, "update must not create a second file")
	assert.Equal(t, "second", d.byName("log.txt").content)
}

func TestUnauthorized(t *testing.T) {
	d := newFakeDrive()
	d.status = http.StatusUnauthorized
	c := newClient(t, d)

	_, err := c.TemporaryLink(context.Background(), "/notes_log.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token rejected")
}

func TestInvalidPath(t *testing.T) {
	c := newClient(t, newFakeDrive())

	_, err := c.TemporaryLink(context.Background(), "/")
	assert.Error(t, err)
}

// The synchronizer works end to end over the Drive backend.
func TestWithSynchronizer(t *testing.T) {
	d := newFakeDrive()
	d.add("notes_log.txt", googledrive.RootID, "text/plain", "")
	c := newClient(t, d)
	s := notelog.New(c, notelog.Config{Path: "/notes_log.txt", Delimiter: "\n--\n"})

	newLog, err := s.Send(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello\n--\n", newLog)
	assert.Equal(t, "hello\n--\n", d.byName("notes_log.txt").content)
}

// On a fresh drive the first read creates an empty log, so sends work
// without the user making the file.
func TestAutoCreate_FreshDrive(t *testing.T) {
	d := newFakeDrive()
	c := googledrive.AutoCreate{Client: newClient(t, d)}
	s := notelog.New(c, notelog.Config{Path: "/journal/notes_log.txt", Delimiter: "\n--\n"})
	ctx := context.Background()

	for _, note := range []string{"one", "two", "three"} {
		_, err := s.Send(ctx, note)
		require.NoError(t, err)
	}

	assert.Len(t, d.files, 2, "one folder and one log file")
	assert.Equal(t, "three\n--\ntwo\n--\none\n--\n", d.byName("notes_log.txt").content)
}

func TestAutoCreate_OtherErrorsPassThrough(t *testing.T) {
	d := newFakeDrive()
	d.status = http.StatusUnauthorized
	c := googledrive.AutoCreate{Client: newClient(t, d)}

	_, err := c.TemporaryLink(context.Background(), "/notes_log.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access token rejected")
	assert.Empty(t, d.files)
}
