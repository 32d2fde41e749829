package main

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rhyrak/go-allocate/internal/allocator"
	"github.com/rhyrak/go-allocate/internal/csvio"
	"github.com/rhyrak/go-allocate/internal/metrics"
	"github.com/rhyrak/go-allocate/internal/store"
	"github.com/rhyrak/go-allocate/pkg/model"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	runs, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { runs.Close() })
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return &server{
		cfg:     allocator.NewDefaultConfiguration(),
		runs:    runs,
		metrics: m,
		logger:  zap.NewNop(),
	}
}

func upload(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, data := range files {
		part, err := w.CreateFormFile(name, name+".bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/allocation", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func templateBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, csvio.WriteTemplateXLSX(&buf))
	return buf.Bytes()
}

type postResponse struct {
	ID     string      `json:"id"`
	Stats  model.Stats `json:"stats"`
	Report string      `json:"report"`
	Error  string      `json:"error"`
}

func TestAllocationLifecycle(t *testing.T) {
	s := newTestServer(t)
	r := s.router()

	rec := serve(r, upload(t, nil, map[string][]byte{"workbook": templateBytes(t)}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var posted postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	require.NotEmpty(t, posted.ID)
	assert.Equal(t, model.Stats{Total: 3, Allocated: 3, Unallocated: 0}, posted.Stats)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Allocations []store.RunMeta `json:"allocations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Allocations, 1)
	assert.Equal(t, posted.ID, list.Allocations[0].ID)
	assert.Equal(t, store.StatusSuccess, list.Allocations[0].Status)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID+"?department=ECE", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		Departments []string                 `json:"departments"`
		Allocations []model.AllocationRecord `json:"allocations"`
		Stats       model.Stats              `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, []string{"CSE", "ECE", "Mechanical"}, detail.Departments)
	require.Len(t, detail.Allocations, 1)
	assert.Equal(t, "VLSI Design", detail.Allocations[0].AllocatedCourse)
	assert.Equal(t, 3, detail.Stats.Total)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID+"?q=robert", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.Len(t, detail.Allocations, 1)
	assert.Equal(t, "UID003", detail.Allocations[0].UID)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID+"/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "course_allocations.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Sr No,Name,UID,CGPA,Department,Allocated Course,Preference"))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID+"/export?format=xlsx", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	wb, err := csvio.ReadWorkbook(rec.Body)
	require.NoError(t, err)
	assert.NotNil(t, wb.Sheet(csvio.AllocationsSheet))

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID+"/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodDelete, "/allocation/"+posted.ID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = serve(r, httptest.NewRequest(http.MethodDelete, "/allocation/"+posted.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostAllocation_CSVFiles(t *testing.T) {
	s := newTestServer(t)
	r := s.router()

	files := map[string][]byte{
		"students":    []byte("Sr No,Name,UID,CGPA,Department,Preference 1,Preference 2\n1,A,U1,8,CSE,ML,Web\n2,B,U2,8,CSE,ML,\n3,C,U3,bad,CSE,ML,\n"),
		"departments": []byte("Sr No,Department Name,Course Offered,Total Intake\n"),
		"courses":     []byte("Sr No,Course Name,CSE\n1,ML,1\n2,Web,1\n"),
	}
	rec := serve(r, upload(t, nil, files))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var posted postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	// three student rows, the one with an unreadable CGPA is left out of the totals
	assert.Equal(t, model.Stats{Total: 2, Allocated: 1, Unallocated: 1}, posted.Stats)
	assert.Contains(t, posted.Report, `invalid CGPA "bad" for U3, skipped`)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/allocation/"+posted.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var detail map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.NotContains(t, string(detail["allocations"]), "U3")
	assert.Contains(t, string(detail["allocations"]), `"preferenceNumber":null`)

	run, err := s.runs.Get(t.Context(), posted.ID)
	require.NoError(t, err)
	assert.Equal(t, "ML", run.Result.Records[0].AllocatedCourse)
	assert.Equal(t, "U1", run.Result.Records[0].UID)
}

func TestPostAllocation_MaxRank(t *testing.T) {
	s := newTestServer(t)
	r := s.router()
	files := map[string][]byte{
		"students":    []byte("Name,UID,CGPA,Department,Preference 1,Preference 2\nA,U1,8,CSE,Full,Web\n"),
		"departments": []byte("Department Name\n"),
		"courses":     []byte("Course Name,CSE\nFull,0\nWeb,1\n"),
	}

	rec := serve(r, upload(t, map[string]string{"maxRank": "1"}, files))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var posted postResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
	assert.Equal(t, 0, posted.Stats.Allocated)

	rec = serve(r, upload(t, map[string]string{"maxRank": "zero"}, files))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostAllocation_BadInput(t *testing.T) {
	s := newTestServer(t)
	r := s.router()

	tests := []struct {
		name    string
		files   map[string][]byte
		wantErr string
	}{
		{
			name:    "missing tables",
			files:   map[string][]byte{"students": []byte("Name,UID,CGPA,Department\n")},
			wantErr: csvio.ErrMissingTables.Error(),
		},
		{
			name:    "workbook is not xlsx",
			files:   map[string][]byte{"workbook": []byte("plain text")},
			wantErr: "failed to read workbook",
		},
		{
			name: "missing columns",
			files: map[string][]byte{
				"students":    []byte("Name,UID\n"),
				"departments": []byte("Department Name\n"),
				"courses":     []byte("Course Name\n"),
			},
			wantErr: "required columns not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(r, upload(t, nil, tt.files))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var posted postResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &posted))
			assert.Contains(t, posted.Error, tt.wantErr)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/allocation", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, serve(r, req).Code)
}

func TestGetTemplate(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s.router(), httptest.NewRequest(http.MethodGet, "/template", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "course_allocation_template.xlsx")
	wb, err := csvio.ReadWorkbook(rec.Body)
	require.NoError(t, err)
	assert.NoError(t, wb.Validate())
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	rec := serve(s.router(), httptest.NewRequest(http.MethodOptions, "/allocation", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
