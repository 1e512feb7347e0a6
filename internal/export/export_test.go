package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"lbpress/internal/model"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	calls      int
}

func (m *mockTransport) Do(_ *http.Request) (*http.Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAdapter(transport *mockTransport) *Adapter {
	probe := NewSpoilerProbe(transport)
	probe.SetDelay(0)
	return New(probe, discardLogger())
}

const exportHeader = "Date,Name,Year,Letterboxd URI,Rating,Watched Date,Review,Spoilers\n"

func TestRead(t *testing.T) {
	csvData := exportHeader +
		"2024-03-12,Heat,1995,https://boxd.it/abc,4,2024-03-10,\"First paragraph.\n\nSecond paragraph.\nWith a break.\",0\n" +
		"2024-03-13,Old Boy,2003,https://boxd.it/def,3.5,,\"The twist.\",1\n"

	transport := &mockTransport{}
	a := testAdapter(transport)

	records, err := a.Read(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if transport.calls != 0 {
		t.Errorf("probe called %d times despite Spoilers column", transport.calls)
	}

	want := model.ReviewRecord{
		ID:        RecordID("Heat", "1995"),
		Title:     "Heat",
		Year:      1995,
		Rating:    model.Rating(4),
		Timestamp: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Link:      "https://boxd.it/abc",
		Body:      "<p>First paragraph.</p><p>Second paragraph.<br />With a break.</p>",
		Spoiler:   false,
	}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Errorf("first record mismatch (-want +got):\n%s", diff)
	}

	t.Run("spoilers column read", func(t *testing.T) {
		if !records[1].Spoiler {
			t.Error("expected spoiler flag from column")
		}
	})

	t.Run("missing watched date falls back to date column", func(t *testing.T) {
		want := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
		if !records[1].Timestamp.Equal(want) {
			t.Errorf("timestamp = %v, want %v", records[1].Timestamp, want)
		}
	})
}

func TestReadSkipsMalformedRows(t *testing.T) {
	csvData := exportHeader +
		"2024-03-12,Heat,not-a-year,https://boxd.it/abc,4,2024-03-10,Review.,0\n" +
		"not-a-date,Ran,1985,https://boxd.it/ghi,5,,Review.,0\n" +
		"2024-03-13,Old Boy,2003,https://boxd.it/def,3.5,,Review.,0\n"

	a := testAdapter(&mockTransport{})
	records, err := a.Read(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Title != "Old Boy" {
		t.Errorf("surviving record = %q", records[0].Title)
	}
}

func TestReadMissingRequiredColumn(t *testing.T) {
	csvData := "Date,Name,Year,Rating,Review\nrow\n"
	a := testAdapter(&mockTransport{})
	_, err := a.Read(context.Background(), strings.NewReader(csvData))
	if err == nil {
		t.Fatal("expected error for missing column, got nil")
	}
	if !strings.Contains(err.Error(), "Letterboxd URI") {
		t.Errorf("error %q does not name the missing column", err)
	}
}

func TestReadProbesWithoutSpoilersColumn(t *testing.T) {
	csvData := "Date,Name,Year,Letterboxd URI,Rating,Watched Date,Review\n" +
		"2024-03-12,Heat,1995,https://boxd.it/abc,4,2024-03-10,Review.\n"

	transport := &mockTransport{
		statusCode: 200,
		body:       `<html><head><meta content="` + spoilerMetaContent + `"/></head><body></body></html>`,
	}
	a := testAdapter(transport)

	records, err := a.Read(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("probe called %d times, want 1", transport.calls)
	}
	if !records[0].Spoiler {
		t.Error("expected spoiler flag from probe")
	}
}

func TestRecordID(t *testing.T) {
	id := RecordID("Heat", "1995")
	if !strings.HasPrefix(id, "letterboxd-review-") {
		t.Errorf("id %q missing prefix", id)
	}
	if diff := cmp.Diff(id, RecordID("Heat", "1995")); diff != "" {
		t.Errorf("id not stable (-want +got):\n%s", diff)
	}
	if id == RecordID("Heat", "1996") {
		t.Error("different year produced the same id")
	}
}

func TestRebuildBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs and breaks",
			in:   "One.\n\nTwo.\nStill two.",
			want: "<p>One.</p><p>Two.<br />Still two.</p>",
		},
		{
			name: "single paragraph",
			in:   "Just one.",
			want: "<p>Just one.</p>",
		},
		{
			name: "empty segments dropped",
			in:   "One.\n\n\n\nTwo.",
			want: "<p>One.</p><p>Two.</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, RebuildBody(tt.in)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBackfill(t *testing.T) {
	csvData := "Date,Name,Year,Letterboxd URI,Rating,Review\n" +
		"2024-03-12,Heat,1995,https://boxd.it/abc,4,Review.\n"

	transport := &mockTransport{
		statusCode: 200,
		body:       `<html><head><meta content="` + spoilerMetaContent + `"/></head><body></body></html>`,
	}
	a := testAdapter(transport)

	var out bytes.Buffer
	if err := a.Backfill(context.Background(), strings.NewReader(csvData), &out, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Date,Name,Year,Letterboxd URI,Rating,Review,Spoilers\n" +
		"2024-03-12,Heat,1995,https://boxd.it/abc,4,Review.,1\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBackfillDryRun(t *testing.T) {
	csvData := "Date,Name,Year,Letterboxd URI,Rating,Review\n" +
		"2024-03-12,Heat,1995,https://boxd.it/abc,4,Review.\n"

	transport := &mockTransport{statusCode: 200, body: "<html></html>"}
	a := testAdapter(transport)

	var out bytes.Buffer
	if err := a.Backfill(context.Background(), strings.NewReader(csvData), &out, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("dry run wrote output: %q", out.String())
	}
}
